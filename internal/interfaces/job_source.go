package interfaces

import (
	"context"

	"github.com/ternarybob/jobpilot/internal/models"
)

// JobQuery is what a source is asked for
type JobQuery struct {
	Role   string
	Region string
	Limit  int
}

// JobSource fetches and normalises listings from one public job board
type JobSource interface {
	// Name is the provenance tag written to JobListing.Source
	Name() string

	// Fetch returns normalised listings with status new
	Fetch(ctx context.Context, query JobQuery) ([]models.JobListing, error)
}
