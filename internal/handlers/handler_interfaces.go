package handlers

import (
	"context"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/autopilot"
)

// AutopilotController starts, pauses and reports on the queue processor
type AutopilotController interface {
	Start() error
	Pause()
	Status() autopilot.Status
}

// DiscoveryRunner runs discovery and merges new listings
type DiscoveryRunner interface {
	Run(ctx context.Context, trigger string) (interfaces.DiscoveryResult, []models.JobListing, error)
}

// JobImporter turns a job page URL into a listing
type JobImporter interface {
	Import(ctx context.Context, pageURL string) (*models.JobListing, error)
}
