package events

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

// NewLoggerSubscriber creates an event handler that mirrors events into the service log
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		switch payload := event.Payload.(type) {
		case models.AutomationLog:
			logger.Debug().
				Str("event_type", string(event.Type)).
				Str("log_type", string(payload.Type)).
				Msg(payload.Message)
		case models.JobListing:
			logger.Debug().
				Str("event_type", string(event.Type)).
				Str("job_id", payload.ID).
				Str("status", string(payload.Status)).
				Msg("Job updated")
		case interfaces.DiscoveryResult:
			logger.Info().
				Str("trigger", payload.Trigger).
				Int("found", payload.Found).
				Int("added", payload.Added).
				Msg("Jobs discovered")
		default:
			logger.Debug().Str("event_type", string(event.Type)).Msg("Event published")
		}
		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)
	for _, eventType := range []interfaces.EventType{
		interfaces.EventAutomationLog,
		interfaces.EventJobUpdated,
		interfaces.EventAutomationCompleted,
		interfaces.EventJobsDiscovered,
	} {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return err
		}
	}
	return nil
}
