package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

func TestPublishDeliversInOrder(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	require.NoError(t, svc.Subscribe(interfaces.EventAutomationLog, func(ctx context.Context, e interfaces.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Payload.(models.AutomationLog).Message)
		if len(got) == 20 {
			close(done)
		}
		return nil
	}))

	var want []string
	for i := 0; i < 20; i++ {
		msg := string(rune('a' + i))
		want = append(want, msg)
		require.NoError(t, svc.Publish(context.Background(), interfaces.Event{
			Type:    interfaces.EventAutomationLog,
			Payload: models.AutomationLog{Message: msg},
		}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not delivered")
	}
	mu.Lock()
	assert.Equal(t, want, got)
	mu.Unlock()
	require.NoError(t, svc.Close())
}

func TestPublishSyncReportsFailuresAndRecoversPanics(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	calls := 0
	require.NoError(t, svc.Subscribe(interfaces.EventJobUpdated, func(ctx context.Context, e interfaces.Event) error {
		calls++
		return errors.New("boom")
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventJobUpdated, func(ctx context.Context, e interfaces.Event) error {
		calls++
		panic("bad handler")
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventJobUpdated, func(ctx context.Context, e interfaces.Event) error {
		calls++
		return nil
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobUpdated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors")
	assert.Equal(t, 3, calls)
}

func TestUnsubscribe(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	calls := 0
	handler := func(ctx context.Context, e interfaces.Event) error {
		calls++
		return nil
	}
	require.NoError(t, svc.Subscribe(interfaces.EventJobsDiscovered, handler))
	require.NoError(t, svc.Unsubscribe(interfaces.EventJobsDiscovered, handler))
	assert.Error(t, svc.Unsubscribe(interfaces.EventJobsDiscovered, handler))

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobsDiscovered}))
	assert.Equal(t, 0, calls)
}

func TestSubscribeRejectsNil(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()
	assert.Error(t, svc.Subscribe(interfaces.EventJobUpdated, nil))
}

func TestPublishAfterClose(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	require.NoError(t, svc.Close())
	assert.Error(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventJobUpdated}))
}

func TestLoggerSubscriberHandlesPayloads(t *testing.T) {
	sub := NewLoggerSubscriber(arbor.NewLogger())
	ctx := context.Background()
	assert.NoError(t, sub(ctx, interfaces.Event{Type: interfaces.EventAutomationLog, Payload: models.AutomationLog{Message: "hi", Type: models.LogTypeInfo}}))
	assert.NoError(t, sub(ctx, interfaces.Event{Type: interfaces.EventJobUpdated, Payload: models.JobListing{ID: "job_1"}}))
	assert.NoError(t, sub(ctx, interfaces.Event{Type: interfaces.EventJobsDiscovered, Payload: interfaces.DiscoveryResult{Found: 2, Added: 1}}))
	assert.NoError(t, sub(ctx, interfaces.Event{Type: interfaces.EventAutomationCompleted}))
}
