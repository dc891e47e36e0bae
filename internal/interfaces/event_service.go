package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventAutomationLog carries a models.AutomationLog appended by any component
	EventAutomationLog EventType = "automation_log"
	// EventJobUpdated carries the models.JobListing after a status or artifact change
	EventJobUpdated EventType = "job_updated"
	// EventJobDeleted carries the models.JobListing that was removed
	EventJobDeleted EventType = "job_deleted"
	// EventAutomationCompleted fires once when the AutoPilot drains the queue
	EventAutomationCompleted EventType = "automation_completed"
	// EventJobsDiscovered carries a DiscoveryResult after new listings are merged
	EventJobsDiscovered EventType = "jobs_discovered"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// DiscoveryResult is the payload of EventJobsDiscovered
type DiscoveryResult struct {
	Found   int    `json:"found"`
	Added   int    `json:"added"`
	Trigger string `json:"trigger"` // "manual", "scheduled" or "import"
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Unsubscribe from an event type
	Unsubscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
