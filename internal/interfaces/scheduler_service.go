package interfaces

import "time"

// ScheduledJobStatus is the state of one cron-registered job
type ScheduledJobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	IsRunning bool       `json:"is_running"`
	LastError string     `json:"last_error,omitempty"`
}

// SchedulerService manages cron-based scheduling
type SchedulerService interface {
	// RegisterJob registers a handler under a cron expression
	RegisterJob(name string, schedule string, handler func() error) error

	// Start begins firing registered jobs
	Start() error

	// Stop halts the scheduler and waits for running jobs
	Stop() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// GetAllJobStatuses returns all job statuses keyed by name
	GetAllJobStatuses() map[string]*ScheduledJobStatus
}
