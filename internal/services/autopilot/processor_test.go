package autopilot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/ai"
	"github.com/ternarybob/jobpilot/internal/services/llm"
	"github.com/ternarybob/jobpilot/internal/services/sources"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
)

type memState struct {
	mu    sync.Mutex
	state *models.PersistedState
}

func (m *memState) LoadState(ctx context.Context) (*models.PersistedState, error) {
	return nil, interfaces.ErrKeyNotFound
}

func (m *memState) SaveState(ctx context.Context, state *models.PersistedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	cp.Jobs = append([]models.JobListing(nil), state.Jobs...)
	cp.Logs = models.TrimLogs(state.Logs, models.MaxPersistedLogs)
	m.state = &cp
	return nil
}

func (m *memState) ClearState(ctx context.Context) error { return nil }

type eventRecorder struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *eventRecorder) Subscribe(interfaces.EventType, interfaces.EventHandler) error   { return nil }
func (r *eventRecorder) Unsubscribe(interfaces.EventType, interfaces.EventHandler) error { return nil }
func (r *eventRecorder) PublishSync(ctx context.Context, e interfaces.Event) error {
	return r.Publish(ctx, e)
}
func (r *eventRecorder) Close() error { return nil }
func (r *eventRecorder) Publish(ctx context.Context, e interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) count(t interfaces.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// scriptedMatcher scores jobs by title; a gate, when set, blocks each call until released
type scriptedMatcher struct {
	mu      sync.Mutex
	scores  map[string]int
	errs    map[string]error
	calls   map[string]int
	gate    chan struct{}
	entered chan string
}

func newScriptedMatcher() *scriptedMatcher {
	return &scriptedMatcher{scores: map[string]int{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (m *scriptedMatcher) AnalyzeAndApply(ctx context.Context, job models.JobListing, profile models.UserProfile) (*models.MatchResult, error) {
	m.mu.Lock()
	m.calls[job.Title]++
	gate, entered := m.gate, m.entered
	err, score := m.errs[job.Title], m.scores[job.Title]
	m.mu.Unlock()

	if entered != nil {
		entered <- job.Title
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.MatchResult{MatchScore: score, CoverLetter: "Dear " + job.Company, Notes: "scripted"}, nil
}

func (m *scriptedMatcher) callCount(title string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[title]
}

var zeroDelays = Config{Threshold: models.DefaultMatchThreshold}

func newWorkspace(t *testing.T, events interfaces.EventService, titles ...string) *workspace.Service {
	t.Helper()
	ws := workspace.NewService(&memState{}, events, arbor.NewLogger())
	require.NoError(t, ws.Load(context.Background()))
	jobs := make([]models.JobListing, len(titles))
	for i, title := range titles {
		jobs[i] = models.JobListing{Title: title, Company: "Acme", URL: "https://jobs.test/" + title}
	}
	added, err := ws.AddJobs(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, added, len(titles))
	return ws
}

func waitForCompletion(t *testing.T, ws *workspace.Service) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, l := range ws.Logs(0) {
			if strings.HasPrefix(l.Message, "AutoPilot queue completed") {
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)
}

func completionMessages(ws *workspace.Service) []string {
	var out []string
	for _, l := range ws.Logs(0) {
		if strings.HasPrefix(l.Message, "AutoPilot queue completed") {
			out = append(out, l.Message)
		}
	}
	return out
}

func jobByTitle(t *testing.T, ws *workspace.Service, title string) models.JobListing {
	t.Helper()
	for _, j := range ws.Jobs() {
		if j.Title == title {
			return j
		}
	}
	t.Fatalf("job %q not found", title)
	return models.JobListing{}
}

func shutdown(t *testing.T, p *Processor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

type rateLimitedProvider struct{}

func (rateLimitedProvider) Name() string { return "limited" }
func (rateLimitedProvider) Generate(ctx context.Context, r *interfaces.LLMRequest) (string, error) {
	return "", fmt.Errorf("gemini: 429 RESOURCE_EXHAUSTED: %w", llm.ErrRateLimited)
}
func (rateLimitedProvider) Close() error { return nil }

func TestEndToEndWithRateLimitedProvider(t *testing.T) {
	events := &eventRecorder{}
	ws := newWorkspace(t, events, "Go Developer", "Rust Developer", "Chef")

	profile := models.DefaultProfile()
	profile.ResumeText = "Go developer building services"
	profile.Skills = []string{"Go"}
	_, err := ws.UpdateProfile(context.Background(), profile)
	require.NoError(t, err)

	config := common.NewDefaultConfig()
	facade := ai.NewService(rateLimitedProvider{}, config, nil, arbor.NewLogger()).
		WithRetryPolicy(llm.RetryPolicy{MaxAttempts: 2, BaseBackoff: time.Millisecond})

	p := NewProcessor(ws, facade, events, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())
	waitForCompletion(t, ws)
	shutdown(t, p)

	for _, j := range ws.Jobs() {
		assert.Contains(t, []models.JobStatus{models.JobStatusApplied, models.JobStatusSkipped}, j.Status, j.Title)
		assert.NotNil(t, j.MatchScore)
	}

	status := p.Status()
	assert.False(t, status.IsRunning)
	assert.Equal(t, 3, status.Processed)

	perJob, completions := 0, 0
	for _, l := range ws.Logs(0) {
		switch {
		case l.Type == models.LogTypeSuccess && strings.HasPrefix(l.Message, "Applied to"),
			l.Type == models.LogTypeInfo && strings.HasPrefix(l.Message, "Skipped"):
			perJob++
		case strings.HasPrefix(l.Message, "AutoPilot queue completed"):
			completions++
		}
	}
	assert.Equal(t, 3, perJob)
	assert.Equal(t, 1, completions)
	assert.Equal(t, 1, events.count(interfaces.EventAutomationCompleted))
}

func TestThresholdBoundaryForEveryScore(t *testing.T) {
	titles := make([]string, 0, 101)
	matcher := newScriptedMatcher()
	for score := 0; score <= 100; score++ {
		title := fmt.Sprintf("job-%03d", score)
		titles = append(titles, title)
		matcher.scores[title] = score
	}
	ws := newWorkspace(t, nil, titles...)

	p := NewProcessor(ws, matcher, nil, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())
	waitForCompletion(t, ws)
	shutdown(t, p)

	for _, j := range ws.Jobs() {
		require.NotNil(t, j.MatchScore)
		if *j.MatchScore >= 60 {
			assert.Equal(t, models.JobStatusApplied, j.Status, j.Title)
			assert.Equal(t, "Dear Acme", j.GeneratedCoverLetter)
		} else {
			assert.Equal(t, models.JobStatusSkipped, j.Status, j.Title)
			assert.Contains(t, j.ApplicationNotes, "below the 60% threshold")
		}
	}
}

func TestProfileThresholdOverridesDefault(t *testing.T) {
	matcher := newScriptedMatcher()
	matcher.scores["A"] = 70
	ws := newWorkspace(t, nil, "A")
	profile := ws.Profile()
	profile.MinMatchScore = models.IntPtr(75)
	_, err := ws.UpdateProfile(context.Background(), profile)
	require.NoError(t, err)

	p := NewProcessor(ws, matcher, nil, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())
	waitForCompletion(t, ws)
	shutdown(t, p)

	j := jobByTitle(t, ws, "A")
	assert.Equal(t, models.JobStatusSkipped, j.Status)

	found := false
	for _, l := range ws.Logs(0) {
		if l.Message == "Skipped A at Acme (match 70% below 75%)" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestFailureIsolatedToOneJob(t *testing.T) {
	matcher := newScriptedMatcher()
	matcher.scores["A"] = 90
	matcher.errs["B"] = errors.New("upstream exploded")
	matcher.scores["C"] = 10
	ws := newWorkspace(t, nil, "A", "B", "C")

	p := NewProcessor(ws, matcher, nil, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())
	waitForCompletion(t, ws)
	shutdown(t, p)

	assert.Equal(t, models.JobStatusApplied, jobByTitle(t, ws, "A").Status)
	b := jobByTitle(t, ws, "B")
	assert.Equal(t, models.JobStatusFailed, b.Status)
	assert.Equal(t, failureNote, b.ApplicationNotes)
	assert.Nil(t, b.MatchScore)
	assert.Equal(t, models.JobStatusSkipped, jobByTitle(t, ws, "C").Status)
	assert.Equal(t, 1, matcher.callCount("B"))

	var errorLogs []string
	for _, l := range ws.Logs(0) {
		if l.Type == models.LogTypeError {
			errorLogs = append(errorLogs, l.Message)
		}
	}
	assert.Equal(t, []string{"Failed to analyze B at Acme: upstream exploded"}, errorLogs)
}

func TestPauseFinishesInFlightAndResumeContinues(t *testing.T) {
	matcher := newScriptedMatcher()
	matcher.scores["A"] = 80
	matcher.scores["B"] = 80
	matcher.gate = make(chan struct{})
	matcher.entered = make(chan string, 4)
	ws := newWorkspace(t, nil, "A", "B")

	p := NewProcessor(ws, matcher, nil, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())

	assert.Equal(t, "A", <-matcher.entered)
	assert.Equal(t, jobByTitle(t, ws, "A").ID, p.Status().CurrentJobID)

	p.Pause()
	assert.False(t, p.Status().IsRunning)
	matcher.gate <- struct{}{}

	require.Eventually(t, func() bool {
		return jobByTitle(t, ws, "A").Status == models.JobStatusApplied && p.Status().CurrentJobID == ""
	}, 5*time.Second, 5*time.Millisecond)

	// Paused: B stays new
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, models.JobStatusNew, jobByTitle(t, ws, "B").Status)

	require.NoError(t, p.Start())
	assert.Equal(t, "B", <-matcher.entered)
	matcher.gate <- struct{}{}
	waitForCompletion(t, ws)
	shutdown(t, p)

	assert.Equal(t, models.JobStatusApplied, jobByTitle(t, ws, "B").Status)
	assert.Equal(t, 1, matcher.callCount("A"))
	assert.Equal(t, 1, matcher.callCount("B"))

	// The count spans the pause
	assert.Equal(t, 2, p.Status().Processed)
	assert.Equal(t, []string{"AutoPilot queue completed: 2 processed (2 applied, 0 skipped, 0 failed)"}, completionMessages(ws))
}

func TestProcessedResetsAfterQueueDrains(t *testing.T) {
	matcher := newScriptedMatcher()
	matcher.scores["A"] = 80
	matcher.scores["B"] = 20
	ws := newWorkspace(t, nil, "A")

	p := NewProcessor(ws, matcher, nil, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())
	waitForCompletion(t, ws)
	assert.Equal(t, 1, p.Status().Processed)

	_, err := ws.AddJobs(context.Background(), []models.JobListing{{Title: "B", Company: "Acme", URL: "https://jobs.test/B"}})
	require.NoError(t, err)
	require.NoError(t, p.Start())
	require.Eventually(t, func() bool { return len(completionMessages(ws)) == 2 }, 5*time.Second, 5*time.Millisecond)
	shutdown(t, p)

	assert.Equal(t, 1, p.Status().Processed)
	assert.Equal(t, "AutoPilot queue completed: 1 processed (1 applied, 1 skipped, 0 failed)", completionMessages(ws)[1])
}

func TestCompleteKeepsRunningWhenJobsArriveLate(t *testing.T) {
	events := &eventRecorder{}
	ws := newWorkspace(t, events)
	p := NewProcessor(ws, newScriptedMatcher(), events, zeroDelays, arbor.NewLogger())

	// The loop found the queue empty, then a job was added before it finished
	p.mu.Lock()
	p.running, p.loopActive = true, true
	p.mu.Unlock()
	_, err := ws.AddJobs(context.Background(), []models.JobListing{{Title: "late", Company: "Acme", URL: "https://jobs.test/late"}})
	require.NoError(t, err)

	assert.False(t, p.complete())
	assert.True(t, p.Status().IsRunning)
	assert.Empty(t, completionMessages(ws))
	assert.Equal(t, 0, events.count(interfaces.EventAutomationCompleted))

	claimed, ok, err := ws.ClaimNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	_, err = ws.CompleteJob(context.Background(), claimed.ID, workspace.Outcome{Status: models.JobStatusSkipped, Score: models.IntPtr(10)})
	require.NoError(t, err)

	assert.True(t, p.complete())
	assert.False(t, p.Status().IsRunning)
	assert.Len(t, completionMessages(ws), 1)
	assert.Equal(t, 1, events.count(interfaces.EventAutomationCompleted))
	shutdown(t, p)
}

func TestPlaceholderIsNeverAnalyzed(t *testing.T) {
	matcher := newScriptedMatcher()
	matcher.scores["A"] = 90
	ws := newWorkspace(t, nil, "A")
	placeholder := sources.Placeholder()
	_, err := ws.AddJobs(context.Background(), []models.JobListing{placeholder})
	require.NoError(t, err)

	p := NewProcessor(ws, matcher, nil, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())
	waitForCompletion(t, ws)
	shutdown(t, p)

	assert.Equal(t, 0, matcher.callCount(placeholder.Title))
	assert.Equal(t, 1, p.Status().Processed)
	assert.Equal(t, 1, p.Status().Stats.TotalFound)
	for _, j := range ws.Jobs() {
		assert.False(t, j.IsPlaceholder())
	}
}

func TestProfileZeroThresholdAppliesEveryScoredJob(t *testing.T) {
	matcher := newScriptedMatcher()
	matcher.scores["A"] = 0
	ws := newWorkspace(t, nil, "A")
	profile := ws.Profile()
	profile.MinMatchScore = models.IntPtr(0)
	_, err := ws.UpdateProfile(context.Background(), profile)
	require.NoError(t, err)

	p := NewProcessor(ws, matcher, nil, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())
	waitForCompletion(t, ws)
	shutdown(t, p)

	assert.Equal(t, models.JobStatusApplied, jobByTitle(t, ws, "A").Status)
}

func TestResultDiscardedWhenJobDeletedMidAnalysis(t *testing.T) {
	matcher := newScriptedMatcher()
	matcher.scores["A"] = 90
	matcher.gate = make(chan struct{})
	matcher.entered = make(chan string, 1)
	ws := newWorkspace(t, nil, "A")

	p := NewProcessor(ws, matcher, nil, zeroDelays, arbor.NewLogger())
	require.NoError(t, p.Start())
	<-matcher.entered

	require.NoError(t, ws.DeleteJob(context.Background(), jobByTitle(t, ws, "A").ID))
	close(matcher.gate)
	waitForCompletion(t, ws)
	shutdown(t, p)

	assert.Empty(t, ws.Jobs())
	discarded := false
	for _, l := range ws.Logs(0) {
		assert.False(t, strings.HasPrefix(l.Message, "Applied to"))
		if l.Message == "Discarded result for A at Acme: job was removed" {
			discarded = true
			assert.Equal(t, models.LogTypeInfo, l.Type)
		}
	}
	assert.True(t, discarded)
}

func TestShutdownFailsInFlightJob(t *testing.T) {
	matcher := newScriptedMatcher()
	ws := newWorkspace(t, nil, "A", "B")

	p := NewProcessor(ws, matcher, nil, Config{ProcessDelay: time.Hour}, arbor.NewLogger())
	require.NoError(t, p.Start())
	require.Eventually(t, func() bool { return ws.HasInFlight() }, 5*time.Second, 5*time.Millisecond)

	shutdown(t, p)

	a := jobByTitle(t, ws, "A")
	assert.Equal(t, models.JobStatusFailed, a.Status)
	assert.Equal(t, interruptedNote, a.ApplicationNotes)
	assert.Equal(t, models.JobStatusNew, jobByTitle(t, ws, "B").Status)
	assert.Equal(t, 0, matcher.callCount("A"))
	assert.ErrorIs(t, p.Start(), ErrShutdown)
}

func TestStartOnEmptyQueueCompletesImmediately(t *testing.T) {
	events := &eventRecorder{}
	ws := newWorkspace(t, events)
	p := NewProcessor(ws, newScriptedMatcher(), events, zeroDelays, arbor.NewLogger())

	require.NoError(t, p.Start())
	waitForCompletion(t, ws)
	shutdown(t, p)

	assert.False(t, p.Status().IsRunning)
	assert.Equal(t, 1, events.count(interfaces.EventAutomationCompleted))
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(&common.NewDefaultConfig().Autopilot)
	assert.Equal(t, 2*time.Second, cfg.ProcessDelay)
	assert.Equal(t, 1500*time.Millisecond, cfg.RescheduleInterval)
	assert.Equal(t, 60, cfg.Threshold)
}
