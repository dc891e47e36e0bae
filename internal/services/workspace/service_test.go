package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

// memStore keeps the last saved state as JSON, like the badger store does
type memStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
	fail  error
}

func (m *memStore) LoadState(ctx context.Context) (*models.PersistedState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, interfaces.ErrKeyNotFound
	}
	var st models.PersistedState
	if err := json.Unmarshal(m.data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (m *memStore) SaveState(ctx context.Context, state *models.PersistedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	cp := *state
	cp.Logs = models.TrimLogs(state.Logs, models.MaxPersistedLogs)
	data, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

func (m *memStore) ClearState(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

func (m *memStore) saved(t *testing.T) *models.PersistedState {
	t.Helper()
	st, err := m.LoadState(context.Background())
	require.NoError(t, err)
	return st
}

type recordingEvents struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *recordingEvents) Subscribe(interfaces.EventType, interfaces.EventHandler) error { return nil }
func (r *recordingEvents) Unsubscribe(interfaces.EventType, interfaces.EventHandler) error {
	return nil
}
func (r *recordingEvents) PublishSync(ctx context.Context, e interfaces.Event) error {
	return r.Publish(ctx, e)
}
func (r *recordingEvents) Close() error { return nil }
func (r *recordingEvents) Publish(ctx context.Context, e interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) count(t interfaces.EventType) int {
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

func newTestWorkspace(t *testing.T) (*Service, *memStore, *recordingEvents) {
	t.Helper()
	store := &memStore{}
	events := &recordingEvents{}
	ws := NewService(store, events, arbor.NewLogger())
	require.NoError(t, ws.Load(context.Background()))
	return ws, store, events
}

func job(title, url string) models.JobListing {
	return models.JobListing{Title: title, Company: "Acme", URL: url, Source: "Remotive"}
}

func TestAddJobsDeduplicates(t *testing.T) {
	ws, store, _ := newTestWorkspace(t)
	ctx := context.Background()

	added, err := ws.AddJobs(ctx, []models.JobListing{
		job("A", "https://x.test/a"),
		job("B", "https://x.test/b"),
		job("A again", "https://X.test/a/"),
	})
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, j := range added {
		assert.NotEmpty(t, j.ID)
		assert.Equal(t, models.JobStatusNew, j.Status)
	}

	added, err = ws.AddJobs(ctx, []models.JobListing{job("B", "https://x.test/b"), job("C", "https://x.test/c")})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "C", added[0].Title)

	assert.Len(t, ws.Jobs(), 3)
	assert.Len(t, store.saved(t).Jobs, 3)
}

func TestAddJobsKeepsJobsWithoutURL(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	added, err := ws.AddJobs(context.Background(), []models.JobListing{job("A", ""), job("B", "")})
	require.NoError(t, err)
	assert.Len(t, added, 2)
}

func TestPlaceholderIsNeverQueued(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	ctx := context.Background()
	placeholder := models.JobListing{Title: "No live listings found", Company: "JobPilot", URL: "jobpilot:placeholder", Source: models.SourcePlaceholder}

	added, err := ws.AddJobs(ctx, []models.JobListing{placeholder})
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Empty(t, ws.Jobs())
	assert.False(t, ws.HasPending())

	added, err = ws.AddJobs(ctx, []models.JobListing{placeholder, job("A", "u1")})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "A", added[0].Title)
	assert.True(t, ws.HasPending())
}

func TestClaimNextSkipsStoredPlaceholder(t *testing.T) {
	store := &memStore{}
	require.NoError(t, store.SaveState(context.Background(), &models.PersistedState{
		Version: models.CurrentStateVersion,
		Jobs: []models.JobListing{
			{ID: "job_p", Title: "No live listings found", Source: models.SourcePlaceholder, Status: models.JobStatusNew},
			{ID: "job_a", Title: "A", Source: "Remotive", Status: models.JobStatusNew},
		},
	}))
	ws := NewService(store, nil, arbor.NewLogger())
	require.NoError(t, ws.Load(context.Background()))
	assert.Equal(t, 1, ws.Stats().TotalFound)

	claimed, ok, err := ws.ClaimNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "job_a", claimed.ID)

	_, ok, err = ws.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, ws.HasPending())
}

func TestAddManualJob(t *testing.T) {
	ws, _, events := newTestWorkspace(t)
	ctx := context.Background()

	_, err := ws.AddManualJob(ctx, models.JobListing{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidJob)

	j, err := ws.AddManualJob(ctx, models.JobListing{Title: "Go Dev", Company: "Acme", URL: "https://x.test/go", Status: models.JobStatusApplied})
	require.NoError(t, err)
	assert.Equal(t, models.SourceManual, j.Source)
	assert.Equal(t, models.JobStatusNew, j.Status)
	assert.Equal(t, 1, events.count(interfaces.EventJobUpdated))

	_, err = ws.AddManualJob(ctx, models.JobListing{Title: "Go Dev", URL: "https://x.test/go"})
	assert.ErrorIs(t, err, ErrDuplicateJob)
}

func TestClaimNextIsFIFOAndCompleteJob(t *testing.T) {
	ws, store, events := newTestWorkspace(t)
	ctx := context.Background()
	_, err := ws.AddJobs(ctx, []models.JobListing{job("first", "u1"), job("second", "u2")})
	require.NoError(t, err)

	claimed, ok, err := ws.ClaimNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", claimed.Title)
	assert.Equal(t, models.JobStatusAnalyzing, claimed.Status)
	assert.True(t, ws.HasInFlight())

	done, err := ws.CompleteJob(ctx, claimed.ID, Outcome{
		Status:      models.JobStatusApplied,
		Score:       models.IntPtr(80),
		CoverLetter: "Dear Acme",
		Notes:       "strong match",
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusApplied, done.Status)
	assert.Equal(t, 80, done.Score())
	assert.False(t, ws.HasInFlight())

	persisted := store.saved(t)
	assert.Equal(t, models.JobStatusApplied, persisted.Jobs[0].Status)
	assert.Equal(t, "Dear Acme", persisted.Jobs[0].GeneratedCoverLetter)

	// applied is terminal for automation
	_, err = ws.CompleteJob(ctx, claimed.ID, Outcome{Status: models.JobStatusSkipped})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	next, ok, err := ws.ClaimNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", next.Title)

	assert.GreaterOrEqual(t, events.count(interfaces.EventJobUpdated), 3)
}

func TestClaimNextEmpty(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	_, ok, err := ws.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompleteDeletedJob(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	ctx := context.Background()
	_, err := ws.AddJobs(ctx, []models.JobListing{job("gone", "u1")})
	require.NoError(t, err)
	claimed, _, err := ws.ClaimNext(ctx)
	require.NoError(t, err)

	require.NoError(t, ws.DeleteJob(ctx, claimed.ID))
	_, err = ws.CompleteJob(ctx, claimed.ID, Outcome{Status: models.JobStatusApplied})
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, ws.DeleteJob(ctx, claimed.ID), ErrJobNotFound)
}

func TestDeleteJobPublishesRemovedListing(t *testing.T) {
	ws, store, events := newTestWorkspace(t)
	ctx := context.Background()
	added, err := ws.AddJobs(ctx, []models.JobListing{job("A", "u1"), job("B", "u2")})
	require.NoError(t, err)

	require.NoError(t, ws.DeleteJob(ctx, added[0].ID))
	assert.Len(t, store.saved(t).Jobs, 1)

	events.mu.Lock()
	defer events.mu.Unlock()
	var deleted []models.JobListing
	for _, e := range events.events {
		if e.Type == interfaces.EventJobDeleted {
			deleted = append(deleted, e.Payload.(models.JobListing))
		}
	}
	require.Len(t, deleted, 1)
	assert.Equal(t, added[0].ID, deleted[0].ID)
	assert.Equal(t, "A", deleted[0].Title)
}

func TestMoveJobFollowsManualGraph(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	ctx := context.Background()
	added, err := ws.AddJobs(ctx, []models.JobListing{job("A", "u1")})
	require.NoError(t, err)
	id := added[0].ID

	_, err = ws.MoveJob(ctx, id, models.JobStatusOffer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = ws.MoveJob(ctx, id, models.JobStatusAnalyzing)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, to := range []models.JobStatus{models.JobStatusApplied, models.JobStatusInterviewing, models.JobStatusOffer} {
		moved, err := ws.MoveJob(ctx, id, to)
		require.NoError(t, err)
		assert.Equal(t, to, moved.Status)
	}

	_, err = ws.MoveJob(ctx, "job_missing", models.JobStatusApplied)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestLogsPersistTrimmedButSessionKeepsAll(t *testing.T) {
	ws, store, events := newTestWorkspace(t)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		ws.AppendLog(ctx, fmt.Sprintf("entry %d", i), models.LogTypeInfo)
	}

	assert.Len(t, ws.Logs(0), 60)
	last := ws.Logs(5)
	require.Len(t, last, 5)
	assert.Equal(t, "entry 59", last[4].Message)

	persisted := store.saved(t).Logs
	require.Len(t, persisted, models.MaxPersistedLogs)
	assert.Equal(t, "entry 10", persisted[0].Message)
	assert.Equal(t, "entry 59", persisted[49].Message)
	assert.Equal(t, 60, events.count(interfaces.EventAutomationLog))
}

func TestLoadRecoversStaleAnalyzing(t *testing.T) {
	store := &memStore{}
	require.NoError(t, store.SaveState(context.Background(), &models.PersistedState{
		Jobs: []models.JobListing{
			{ID: "job_1", Title: "stuck", Status: models.JobStatusAnalyzing},
			{ID: "job_2", Title: "fresh", Status: models.JobStatusNew},
		},
	}))

	ws := NewService(store, nil, arbor.NewLogger())
	require.NoError(t, ws.Load(context.Background()))

	j, err := ws.Job("job_1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, j.Status)
	assert.Equal(t, models.StaleAnalysisNote, j.ApplicationNotes)
	assert.False(t, ws.HasInFlight())

	logs := ws.Logs(0)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogTypeError, logs[0].Type)

	assert.Equal(t, models.CurrentStateVersion, store.saved(t).Version)
	assert.Nil(t, ws.Profile().MinMatchScore)
}

func TestUpdateProfileValidates(t *testing.T) {
	ws, store, _ := newTestWorkspace(t)
	ctx := context.Background()

	p := models.DefaultProfile()
	p.Name = "Ada"
	p.Email = "not-an-email"
	_, err := ws.UpdateProfile(ctx, p)
	require.Error(t, err)

	p.Email = "ada@example.com"
	p.MinMatchScore = models.IntPtr(75)
	saved, err := ws.UpdateProfile(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, saved.MinMatchScore)
	assert.Equal(t, 75, *saved.MinMatchScore)
	assert.False(t, saved.UpdatedAt.IsZero())
	assert.Equal(t, "Ada", store.saved(t).Profile.Name)
}

func TestImportProfileYAML(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	doc := []byte(`
name: Grace Hopper
email: grace@example.com
target_roles:
  - Backend Engineer
  - Platform Engineer
experience_level: senior
skills: [go, kubernetes]
min_match_score: 70
`)
	p, err := ws.ImportProfileYAML(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", p.Name)
	assert.Equal(t, []string{"Backend Engineer", "Platform Engineer"}, p.TargetRoles)
	assert.Equal(t, models.ExperienceSenior, p.ExperienceLevel)
	require.NotNil(t, p.MinMatchScore)
	assert.Equal(t, 70, *p.MinMatchScore)
	assert.Equal(t, []string{"Remote"}, p.PreferredLocations)

	_, err = ws.ImportProfileYAML(context.Background(), []byte("name: [unclosed"))
	assert.Error(t, err)
}

func TestSetInterviewPrepAndStats(t *testing.T) {
	ws, _, _ := newTestWorkspace(t)
	ctx := context.Background()
	added, err := ws.AddJobs(ctx, []models.JobListing{job("A", "u1"), job("B", "u2")})
	require.NoError(t, err)

	j, err := ws.SetInterviewPrep(ctx, added[0].ID, []models.InterviewQuestion{{Question: "Why Go?"}})
	require.NoError(t, err)
	require.Len(t, j.InterviewPrep, 1)

	stats := ws.Stats()
	assert.Equal(t, 2, stats.TotalFound)
	assert.Equal(t, 2, stats.Pending)
}

func TestPersistFailureIsReturned(t *testing.T) {
	ws, store, _ := newTestWorkspace(t)
	store.fail = errors.New("disk full")

	_, err := ws.AddJobs(context.Background(), []models.JobListing{job("A", "u1")})
	assert.Error(t, err)
	assert.Len(t, ws.Jobs(), 1)
}
