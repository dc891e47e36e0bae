package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique job listing ID with the "job_" prefix
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewLogID generates a unique automation log ID with the "log_" prefix
func NewLogID() string {
	return "log_" + uuid.New().String()
}
