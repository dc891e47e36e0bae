package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

var (
	// ErrJobNotFound is returned when no job has the requested id
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTransition is returned when a status change is not allowed from the current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateJob is returned when a manual job repeats an existing URL
	ErrDuplicateJob = errors.New("job with this URL already exists")

	// ErrInvalidJob is returned for a manual job without a title
	ErrInvalidJob = errors.New("job title is required")
)

// Outcome is the AutoPilot's classification of an analyzing job
type Outcome struct {
	Status      models.JobStatus
	Score       *int
	CoverLetter string
	Notes       string
}

// Service owns the profile, job list and automation log. Memory is authoritative;
// every mutation writes the whole state through StateStorage.
type Service struct {
	mu       sync.Mutex
	store    interfaces.StateStorage
	events   interfaces.EventService
	validate *validator.Validate
	logger   arbor.ILogger

	profile models.UserProfile
	jobs    []models.JobListing
	logs    []models.AutomationLog

	now func() time.Time
}

// NewService creates a workspace over store. events may be nil.
func NewService(store interfaces.StateStorage, events interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		store:    store,
		events:   events,
		validate: validator.New(),
		logger:   logger,
		profile:  models.DefaultProfile(),
		jobs:     []models.JobListing{},
		logs:     []models.AutomationLog{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Load reads the persisted state, migrating it and recovering interrupted analyses
func (s *Service) Load(ctx context.Context) error {
	state, err := s.store.LoadState(ctx)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		s.logger.Info().Msg("No saved state, starting with an empty workspace")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	recovered := state.Migrate(s.now())

	s.mu.Lock()
	s.profile = state.Profile
	s.jobs = state.Jobs
	s.logs = state.Logs
	s.mu.Unlock()

	s.logger.Info().
		Int("jobs", len(state.Jobs)).
		Int("logs", len(state.Logs)).
		Int("version", state.Version).
		Msg("Workspace loaded")

	if recovered > 0 {
		s.logger.Warn().Int("count", recovered).Msg("Recovered jobs interrupted during analysis")
		s.AppendLog(ctx, fmt.Sprintf("Recovered %d job(s) interrupted during analysis", recovered), models.LogTypeError)
	}
	return nil
}

// Save writes the current state
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Service) persistLocked(ctx context.Context) error {
	state := &models.PersistedState{
		Version: models.CurrentStateVersion,
		Profile: s.profile,
		Jobs:    s.jobs,
		Logs:    s.logs,
		SavedAt: s.now(),
	}
	if err := s.store.SaveState(ctx, state); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist workspace")
		return fmt.Errorf("failed to persist workspace: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish event")
	}
}

// Profile returns a copy of the profile
func (s *Service) Profile() models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// UpdateProfile validates and replaces the profile
func (s *Service) UpdateProfile(ctx context.Context, profile models.UserProfile) (models.UserProfile, error) {
	profile = profile.Clone()
	profile.ApplyDefaults()
	if err := s.validate.Struct(profile); err != nil {
		return models.UserProfile{}, fmt.Errorf("invalid profile: %w", err)
	}
	profile.UpdatedAt = s.now()

	s.mu.Lock()
	s.profile = profile
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Info().Str("name", profile.Name).Int("roles", len(profile.TargetRoles)).Msg("Profile updated")
	return profile.Clone(), err
}

// ImportProfileYAML overlays the fields present in a YAML document onto the current profile
func (s *Service) ImportProfileYAML(ctx context.Context, data []byte) (models.UserProfile, error) {
	profile := s.Profile()
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return models.UserProfile{}, fmt.Errorf("invalid profile YAML: %w", err)
	}
	return s.UpdateProfile(ctx, profile)
}

// Jobs returns copies of all jobs in queue order
func (s *Service) Jobs() []models.JobListing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.JobListing, len(s.jobs))
	for i := range s.jobs {
		out[i] = s.jobs[i].Clone()
	}
	return out
}

// Job returns a copy of one job
func (s *Service) Job(id string) (models.JobListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.JobListing{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return s.jobs[i].Clone(), nil
}

func (s *Service) indexLocked(id string) int {
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) keysLocked() map[string]struct{} {
	keys := make(map[string]struct{}, len(s.jobs))
	for i := range s.jobs {
		keys[s.jobs[i].DedupKey()] = struct{}{}
	}
	return keys
}

// prepare gives a listing an id, status new and timestamps
func (s *Service) prepare(job models.JobListing) models.JobListing {
	now := s.now()
	if job.ID == "" {
		job.ID = common.NewJobID()
	}
	job.Status = models.JobStatusNew
	job.MatchScore = nil
	job.GeneratedCoverLetter = ""
	job.ApplicationNotes = ""
	job.InterviewPrep = nil
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	return job
}

// AddJobs appends listings whose URL is not already queued and returns the added ones
func (s *Service) AddJobs(ctx context.Context, jobs []models.JobListing) ([]models.JobListing, error) {
	s.mu.Lock()
	keys := s.keysLocked()
	added := make([]models.JobListing, 0, len(jobs))
	for _, j := range jobs {
		if j.IsPlaceholder() {
			continue
		}
		j = s.prepare(j.Clone())
		key := j.DedupKey()
		if _, ok := keys[key]; ok {
			continue
		}
		keys[key] = struct{}{}
		s.jobs = append(s.jobs, j)
		added = append(added, j.Clone())
	}

	var err error
	if len(added) > 0 {
		err = s.persistLocked(ctx)
	}
	s.mu.Unlock()

	s.logger.Debug().Int("offered", len(jobs)).Int("added", len(added)).Msg("Jobs merged")
	return added, err
}

// AddManualJob adds a user-entered job tagged Manual
func (s *Service) AddManualJob(ctx context.Context, job models.JobListing) (models.JobListing, error) {
	job.Title = strings.TrimSpace(job.Title)
	if job.Title == "" {
		return models.JobListing{}, ErrInvalidJob
	}
	job.ID = ""
	if job.Source == "" || job.IsPlaceholder() {
		job.Source = models.SourceManual
	}
	job = s.prepare(job)

	s.mu.Lock()
	if _, ok := s.keysLocked()[job.DedupKey()]; ok {
		s.mu.Unlock()
		return models.JobListing{}, ErrDuplicateJob
	}
	s.jobs = append(s.jobs, job)
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, interfaces.EventJobUpdated, job.Clone())
	return job.Clone(), err
}

// DeleteJob removes a job. An analyzing job is removed too; its pending result is discarded.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	removed := s.jobs[i]
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, interfaces.EventJobDeleted, removed)
	return err
}

// MoveJob applies a manual pipeline transition
func (s *Service) MoveJob(ctx context.Context, id string, to models.JobStatus) (models.JobListing, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.JobListing{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	from := s.jobs[i].Status
	if !models.CanTransitionManual(from, to) {
		s.mu.Unlock()
		return models.JobListing{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.jobs[i].Status = to
	s.jobs[i].UpdatedAt = s.now()
	job := s.jobs[i].Clone()
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, interfaces.EventJobUpdated, job)
	return job, err
}

// ClaimNext moves the first new job, in queue order, to analyzing. Placeholders are never claimed.
func (s *Service) ClaimNext(ctx context.Context) (models.JobListing, bool, error) {
	s.mu.Lock()
	for i := range s.jobs {
		if s.jobs[i].Status != models.JobStatusNew || s.jobs[i].IsPlaceholder() {
			continue
		}
		s.jobs[i].Status = models.JobStatusAnalyzing
		s.jobs[i].UpdatedAt = s.now()
		job := s.jobs[i].Clone()
		err := s.persistLocked(ctx)
		s.mu.Unlock()

		s.publish(ctx, interfaces.EventJobUpdated, job)
		return job, true, err
	}
	s.mu.Unlock()
	return models.JobListing{}, false, nil
}

// HasPending reports whether ClaimNext would find a job
func (s *Service) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].Status == models.JobStatusNew && !s.jobs[i].IsPlaceholder() {
			return true
		}
	}
	return false
}

// HasInFlight reports whether any job is analyzing
func (s *Service) HasInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].Status == models.JobStatusAnalyzing {
			return true
		}
	}
	return false
}

// CompleteJob records the AutoPilot's outcome for an analyzing job
func (s *Service) CompleteJob(ctx context.Context, id string, outcome Outcome) (models.JobListing, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.JobListing{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	from := s.jobs[i].Status
	if !models.CanTransitionAutomated(from, outcome.Status) {
		s.mu.Unlock()
		return models.JobListing{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, outcome.Status)
	}

	j := &s.jobs[i]
	j.Status = outcome.Status
	if outcome.Score != nil {
		j.MatchScore = models.IntPtr(*outcome.Score)
	}
	if outcome.CoverLetter != "" {
		j.GeneratedCoverLetter = outcome.CoverLetter
	}
	j.ApplicationNotes = outcome.Notes
	j.UpdatedAt = s.now()
	job := j.Clone()
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, interfaces.EventJobUpdated, job)
	return job, err
}

// SetInterviewPrep stores generated interview questions on a job
func (s *Service) SetInterviewPrep(ctx context.Context, id string, questions []models.InterviewQuestion) (models.JobListing, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.JobListing{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	s.jobs[i].InterviewPrep = append([]models.InterviewQuestion(nil), questions...)
	s.jobs[i].UpdatedAt = s.now()
	job := s.jobs[i].Clone()
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, interfaces.EventJobUpdated, job)
	return job, err
}

// AppendLog adds an automation log entry, persists and publishes it.
// Persistence failures are logged, never returned.
func (s *Service) AppendLog(ctx context.Context, message string, logType models.AutomationLogType) models.AutomationLog {
	entry := models.AutomationLog{
		ID:        common.NewLogID(),
		Timestamp: s.now(),
		Message:   message,
		Type:      logType,
	}

	s.mu.Lock()
	s.logs = append(s.logs, entry)
	_ = s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, interfaces.EventAutomationLog, entry)
	return entry
}

// Logs returns the most recent limit entries; limit <= 0 returns the whole session log
func (s *Service) Logs(limit int) []models.AutomationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = len(s.logs)
	}
	return models.TrimLogs(s.logs, limit)
}

// Stats derives queue counters from the current job list
func (s *Service) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ComputeStats(s.jobs)
}
