package autopilot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
)

const (
	// DefaultProcessDelay is the pause before each analysis call
	DefaultProcessDelay = 2 * time.Second

	// DefaultRescheduleInterval is the pause between loop iterations
	DefaultRescheduleInterval = 1500 * time.Millisecond

	// failureNote is stored on jobs whose analysis returned an error
	failureNote = "Analysis failed. Move the job back to new to retry."

	// interruptedNote is stored on the in-flight job when the process shuts down
	interruptedNote = "Analysis interrupted by shutdown"
)

// ErrShutdown is returned by Start after Shutdown
var ErrShutdown = errors.New("autopilot is shut down")

// Config holds the loop timings and the fallback match threshold
type Config struct {
	ProcessDelay       time.Duration
	RescheduleInterval time.Duration
	Threshold          int
}

// ConfigFrom reads [autopilot] settings
func ConfigFrom(cfg *common.AutopilotConfig) Config {
	return Config{
		ProcessDelay:       common.ParseDurationOr(cfg.ProcessDelay, DefaultProcessDelay),
		RescheduleInterval: common.ParseDurationOr(cfg.RescheduleInterval, DefaultRescheduleInterval),
		Threshold:          cfg.MatchThreshold,
	}
}

// Status is a snapshot of the processor
type Status struct {
	IsRunning    bool         `json:"isRunning"`
	CurrentJobID string       `json:"currentJobId,omitempty"`
	Processed    int          `json:"processed"`
	Stats        models.Stats `json:"stats"`
}

// Processor drains the queue of new jobs one at a time:
// new -> analyzing -> applied | skipped | failed.
type Processor struct {
	workspace *workspace.Service
	matcher   interfaces.JobMatcher
	events    interfaces.EventService
	config    Config
	logger    arbor.ILogger

	mu         sync.Mutex
	running    bool
	loopActive bool
	shutdown   bool
	currentID  string
	processed  int
	drained    bool // the last run ended by draining the queue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor creates a stopped processor. events may be nil.
func NewProcessor(ws *workspace.Service, matcher interfaces.JobMatcher, events interfaces.EventService, config Config, logger arbor.ILogger) *Processor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		workspace: ws,
		matcher:   matcher,
		events:    events,
		config:    config,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start sets the running flag and launches the loop if it is not already active
func (p *Processor) Start() error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return ErrShutdown
	}
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	if p.drained {
		p.processed = 0
		p.drained = false
	}
	launch := !p.loopActive
	if launch {
		p.loopActive = true
		p.wg.Add(1)
	}
	p.mu.Unlock()

	p.logger.Info().Msg("AutoPilot started")
	p.workspace.AppendLog(p.ctx, "AutoPilot started", models.LogTypeAction)

	if launch {
		common.SafeGo(p.logger, "autopilot", func() {
			defer p.wg.Done()
			p.loop()
		})
	}
	return nil
}

// Pause clears the running flag. The in-flight job, if any, is finished first.
func (p *Processor) Pause() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info().Msg("AutoPilot paused")
	p.workspace.AppendLog(p.ctx, "AutoPilot paused", models.LogTypeInfo)
}

// Status returns the current processor state and queue statistics
func (p *Processor) Status() Status {
	p.mu.Lock()
	st := Status{
		IsRunning:    p.running,
		CurrentJobID: p.currentID,
		Processed:    p.processed,
	}
	p.mu.Unlock()
	st.Stats = p.workspace.Stats()
	return st
}

// Shutdown cancels the loop, aborting the delay or in-flight call, and waits for it to exit
func (p *Processor) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.shutdown = true
	p.running = false
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("autopilot shutdown: %w", ctx.Err())
	}
}

// continueLoop reports whether another iteration should run; when not, it marks the loop inactive
func (p *Processor) continueLoop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running && p.ctx.Err() == nil {
		return true
	}
	p.loopActive = false
	return false
}

func (p *Processor) loop() {
	for p.continueLoop() {
		job, ok, err := p.workspace.ClaimNext(p.ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Failed to persist claimed job")
		}

		if !ok {
			if p.workspace.HasInFlight() {
				p.sleep(p.config.RescheduleInterval)
				continue
			}
			if p.complete() {
				return
			}
			continue
		}

		p.process(job)
		p.sleep(p.config.RescheduleInterval)
	}
}

// complete stops the loop after the queue drained. It returns false, leaving the
// loop running, when jobs were queued after the last claim.
func (p *Processor) complete() bool {
	p.mu.Lock()
	if p.running && p.ctx.Err() == nil && p.workspace.HasPending() {
		p.mu.Unlock()
		return false
	}
	p.running = false
	p.loopActive = false
	p.drained = true
	processed := p.processed
	p.mu.Unlock()

	stats := p.workspace.Stats()
	msg := fmt.Sprintf("AutoPilot queue completed: %d processed (%d applied, %d skipped, %d failed)",
		processed, stats.Applied, stats.Skipped, stats.Failed)

	p.logger.Info().Int("processed", processed).Msg("AutoPilot queue completed")
	p.workspace.AppendLog(p.ctx, msg, models.LogTypeSuccess)

	if p.events != nil {
		status := Status{Processed: processed, Stats: stats}
		if err := p.events.Publish(p.ctx, interfaces.Event{Type: interfaces.EventAutomationCompleted, Payload: status}); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to publish completion event")
		}
	}
	return true
}

// sleep waits d or until shutdown; it returns false when interrupted
func (p *Processor) sleep(d time.Duration) bool {
	if d <= 0 {
		return p.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// process classifies one analyzing job
func (p *Processor) process(job models.JobListing) {
	p.mu.Lock()
	p.currentID = job.ID
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.currentID = ""
		p.processed++
		p.mu.Unlock()
	}()

	label := fmt.Sprintf("%s at %s", job.Title, job.Company)
	p.workspace.AppendLog(p.ctx, fmt.Sprintf("Analyzing %s...", label), models.LogTypeAction)

	// Writes after shutdown still need to land
	writeCtx := context.WithoutCancel(p.ctx)

	if !p.sleep(p.config.ProcessDelay) {
		p.finish(writeCtx, job, label, workspace.Outcome{Status: models.JobStatusFailed, Notes: interruptedNote}, "")
		return
	}

	profile := p.workspace.Profile()
	threshold := profile.Threshold(p.config.Threshold)

	result, err := p.matcher.AnalyzeAndApply(p.ctx, job, profile)
	if err != nil {
		note := failureNote
		if p.ctx.Err() != nil {
			note = interruptedNote
		}
		p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Job analysis failed")
		p.finish(writeCtx, job, label, workspace.Outcome{Status: models.JobStatusFailed, Notes: note},
			fmt.Sprintf("Failed to analyze %s: %v", label, err))
		return
	}

	score := clampScore(result.MatchScore)
	if score >= threshold {
		p.finish(writeCtx, job, label, workspace.Outcome{
			Status:      models.JobStatusApplied,
			Score:       models.IntPtr(score),
			CoverLetter: result.CoverLetter,
			Notes:       result.Notes,
		}, fmt.Sprintf("Applied to %s (match %d%%)", label, score))
		return
	}

	notes := fmt.Sprintf("Skipped: match %d%% is below the %d%% threshold.", score, threshold)
	if result.Notes != "" {
		notes = result.Notes + " " + notes
	}
	p.finish(writeCtx, job, label, workspace.Outcome{
		Status: models.JobStatusSkipped,
		Score:  models.IntPtr(score),
		Notes:  notes,
	}, fmt.Sprintf("Skipped %s (match %d%% below %d%%)", label, score, threshold))
}

// finish records the outcome and writes the per-job log line. An empty message
// means the outcome is logged generically.
func (p *Processor) finish(ctx context.Context, job models.JobListing, label string, outcome workspace.Outcome, message string) {
	_, err := p.workspace.CompleteJob(ctx, job.ID, outcome)
	switch {
	case errors.Is(err, workspace.ErrJobNotFound):
		p.workspace.AppendLog(ctx, fmt.Sprintf("Discarded result for %s: job was removed", label), models.LogTypeInfo)
		return
	case errors.Is(err, workspace.ErrInvalidTransition):
		p.logger.Error().Err(err).Str("job_id", job.ID).Msg("Job left analyzing outside the AutoPilot")
		return
	case err != nil:
		p.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist job outcome")
	}

	logType := models.LogTypeError
	switch outcome.Status {
	case models.JobStatusApplied:
		logType = models.LogTypeSuccess
	case models.JobStatusSkipped:
		logType = models.LogTypeInfo
	}
	if message == "" {
		message = fmt.Sprintf("Failed to analyze %s: %s", label, outcome.Notes)
	}
	p.workspace.AppendLog(ctx, message, logType)

	p.logger.Debug().
		Str("job_id", job.ID).
		Str("status", string(outcome.Status)).
		Msg("Job classified")
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
