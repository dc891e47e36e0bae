package events

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/interfaces"
)

// queueSize bounds events waiting for async dispatch; Publish drops when full
const queueSize = 256

type queuedEvent struct {
	ctx   context.Context
	event interfaces.Event
}

// Service implements EventService with pub/sub. Async events are delivered by a
// single dispatcher goroutine so subscribers see them in publish order.
type Service struct {
	subscribers map[interfaces.EventType][]interfaces.EventHandler
	mu          sync.RWMutex
	logger      arbor.ILogger

	queue     chan queuedEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService creates a new event service and starts its dispatcher
func NewService(logger arbor.ILogger) interfaces.EventService {
	s := &Service{
		subscribers: make(map[interfaces.EventType][]interfaces.EventHandler),
		logger:      logger,
		queue:       make(chan queuedEvent, queueSize),
		done:        make(chan struct{}),
	}
	s.wg.Add(1)
	go s.dispatch()
	return s
}

// Subscribe registers a handler for an event type
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers[eventType] = append(s.subscribers[eventType], handler)

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", len(s.subscribers[eventType])).
		Msg("Event handler subscribed")

	return nil
}

// Unsubscribe removes a handler, matched by function identity
func (s *Service) Unsubscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := reflect.ValueOf(handler).Pointer()
	handlers := s.subscribers[eventType]
	for i, h := range handlers {
		if reflect.ValueOf(h).Pointer() == target {
			s.subscribers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("handler not found for event type: %s", eventType)
}

func (s *Service) handlers(eventType interfaces.EventType) []interfaces.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]interfaces.EventHandler(nil), s.subscribers[eventType]...)
}

// Publish queues an event for asynchronous, ordered delivery
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	select {
	case <-s.done:
		return fmt.Errorf("event service closed")
	default:
	}

	select {
	case s.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		s.logger.Warn().Str("event_type", string(event.Type)).Msg("Event queue full, dropping event")
		return fmt.Errorf("event queue full")
	}
}

// PublishSync delivers an event to all subscribers and waits for them
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	if errs := s.deliver(ctx, event); errs > 0 {
		return fmt.Errorf("event handlers failed: %d errors", errs)
	}
	return nil
}

func (s *Service) dispatch() {
	defer s.wg.Done()
	for {
		select {
		case item := <-s.queue:
			s.deliver(item.ctx, item.event)
		case <-s.done:
			// Drain what was already accepted
			for {
				select {
				case item := <-s.queue:
					s.deliver(item.ctx, item.event)
				default:
					return
				}
			}
		}
	}
}

// deliver calls each handler in subscription order and returns the number that failed
func (s *Service) deliver(ctx context.Context, event interfaces.Event) int {
	failed := 0
	for _, h := range s.handlers(event.Type) {
		if err := s.invoke(ctx, h, event); err != nil {
			s.logger.Error().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("Event handler failed")
			failed++
		}
	}
	return failed
}

func (s *Service) invoke(ctx context.Context, h interfaces.EventHandler, event interfaces.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, event)
}

// Close stops the dispatcher after delivering queued events
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		s.mu.Lock()
		s.subscribers = make(map[interfaces.EventType][]interfaces.EventHandler)
		s.mu.Unlock()

		s.logger.Debug().Msg("Event service closed")
	})
	return nil
}
