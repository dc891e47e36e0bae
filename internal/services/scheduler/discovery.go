package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
)

// Discovery triggers recorded on jobs_discovered events
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// DiscoveryJobName is the scheduler name of the discovery job
const DiscoveryJobName = "job_discovery"

// scheduledRunTimeout bounds one scheduled discovery run
const scheduledRunTimeout = 5 * time.Minute

// ErrDiscoveryInProgress is returned when a run is requested while another is active
var ErrDiscoveryInProgress = errors.New("discovery already in progress")

// Discoverer finds listings for a profile
type Discoverer interface {
	Discover(ctx context.Context, profile models.UserProfile) ([]models.JobListing, error)
}

// Starter starts the AutoPilot
type Starter interface {
	Start() error
}

// DiscoveryRunner runs discovery and merges the result into the workspace
type DiscoveryRunner struct {
	discoverer Discoverer
	workspace  *workspace.Service
	events     interfaces.EventService
	autopilot  Starter
	autoStart  bool
	logger     arbor.ILogger
	mu         sync.Mutex
}

// NewDiscoveryRunner creates a runner. When autoStart is set and autopilot is non-nil,
// scheduled runs that add jobs start the AutoPilot.
func NewDiscoveryRunner(d Discoverer, ws *workspace.Service, events interfaces.EventService, autopilot Starter, autoStart bool, logger arbor.ILogger) *DiscoveryRunner {
	return &DiscoveryRunner{
		discoverer: d,
		workspace:  ws,
		events:     events,
		autopilot:  autopilot,
		autoStart:  autoStart,
		logger:     logger,
	}
}

// Run discovers listings for the current profile and queues the new ones
func (r *DiscoveryRunner) Run(ctx context.Context, trigger string) (interfaces.DiscoveryResult, []models.JobListing, error) {
	if !r.mu.TryLock() {
		return interfaces.DiscoveryResult{}, nil, ErrDiscoveryInProgress
	}
	defer r.mu.Unlock()

	profile := r.workspace.Profile()
	roles := "your profile"
	if len(profile.TargetRoles) > 0 {
		roles = strings.Join(profile.TargetRoles, ", ")
	}
	r.workspace.AppendLog(ctx, fmt.Sprintf("Searching job boards for %s...", roles), models.LogTypeAction)

	found, err := r.discoverer.Discover(ctx, profile)
	if err != nil {
		r.workspace.AppendLog(ctx, fmt.Sprintf("Job discovery failed: %v", err), models.LogTypeError)
		return interfaces.DiscoveryResult{}, nil, fmt.Errorf("discovery failed: %w", err)
	}

	live, placeholders := splitPlaceholders(found)

	added, err := r.workspace.AddJobs(ctx, live)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Discovered jobs not persisted")
	}

	result := interfaces.DiscoveryResult{Found: len(live), Added: len(added), Trigger: trigger}
	switch {
	case result.Added > 0:
		r.workspace.AppendLog(ctx, fmt.Sprintf("Discovered %d jobs, %d new", result.Found, result.Added), models.LogTypeSuccess)
	case result.Found == 0:
		r.workspace.AppendLog(ctx, "No live listings found", models.LogTypeInfo)
	default:
		r.workspace.AppendLog(ctx, fmt.Sprintf("Discovered %d jobs, none new", result.Found), models.LogTypeInfo)
	}

	if r.events != nil {
		if err := r.events.Publish(ctx, interfaces.Event{Type: interfaces.EventJobsDiscovered, Payload: result}); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to publish discovery event")
		}
	}

	if trigger == TriggerScheduled && r.autoStart && r.autopilot != nil && result.Added > 0 {
		if err := r.autopilot.Start(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to auto-start AutoPilot")
		}
	}

	// Placeholders are returned for display only
	if len(live) == 0 {
		return result, placeholders, nil
	}
	return result, added, nil
}

func splitPlaceholders(jobs []models.JobListing) (live, placeholders []models.JobListing) {
	for _, j := range jobs {
		if j.IsPlaceholder() {
			placeholders = append(placeholders, j)
			continue
		}
		live = append(live, j)
	}
	return live, placeholders
}

// RegisterDiscovery schedules runner on the cron expression
func RegisterDiscovery(s *Service, runner *DiscoveryRunner, schedule string) error {
	return s.RegisterJob(DiscoveryJobName, schedule, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
		defer cancel()
		_, _, err := runner.Run(ctx, TriggerScheduled)
		return err
	})
}
