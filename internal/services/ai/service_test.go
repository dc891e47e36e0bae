package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/llm"
	"github.com/ternarybob/jobpilot/internal/services/llm/offline"
)

type mockProvider struct {
	mock.Mock
	inline bool
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(ctx context.Context, request *interfaces.LLMRequest) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Close() error { return nil }

func (m *mockProvider) SupportsInlineData(mimeType string) bool { return m.inline }

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	return s.text, s.err
}

func newTestService(provider interfaces.LLMProvider, mode common.LLMMode) *Service {
	config := common.NewDefaultConfig()
	config.LLM.Mode = mode
	svc := NewService(provider, config, stubExtractor{text: "Ada Lovelace\nada@example.com\nGo developer"}, arbor.NewLogger())
	return svc.WithRetryPolicy(llm.RetryPolicy{MaxAttempts: 2, BaseBackoff: time.Millisecond})
}

var testJob = models.JobListing{
	ID:          "job_1",
	Title:       "Backend Engineer",
	Company:     "Acme",
	Description: "Golang services, PostgreSQL, Kubernetes, Kafka",
}

var testProfile = models.UserProfile{
	Name:            "Ada",
	ResumeText:      "Golang and PostgreSQL backend developer",
	Skills:          []string{"Go", "PostgreSQL"},
	ExperienceLevel: models.ExperienceMid,
}

func TestAnalyzeAndApplyUsesModel(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Generate", mock.Anything, mock.MatchedBy(func(r *interfaces.LLMRequest) bool {
		return r.OutputSchema != nil && r.SystemInstruction != ""
	})).Return("```json\n{\"matchScore\": 81, \"coverLetter\": \"Dear Acme\", \"notes\": \"strong\",}\n```", nil).Once()

	svc := newTestService(provider, common.LLMModePermissive)
	result, err := svc.AnalyzeAndApply(context.Background(), testJob, testProfile)

	require.NoError(t, err)
	assert.Equal(t, 81, result.MatchScore)
	assert.Equal(t, "Dear Acme", result.CoverLetter)
	provider.AssertExpectations(t)
}

func TestAnalyzeAndApplyFallbacks(t *testing.T) {
	expected := offline.Analyze(testJob, testProfile)

	tests := []struct {
		name     string
		response string
		err      error
		calls    int
	}{
		{"rate limited", "", errors.New("Error 429: RESOURCE_EXHAUSTED"), 1},
		{"malformed output", "I think the match is good", nil, 1},
		{"score out of range", `{"matchScore": 140, "coverLetter": "x", "notes": "y"}`, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{}
			provider.On("Generate", mock.Anything, mock.Anything).Return(tt.response, tt.err)

			svc := newTestService(provider, common.LLMModePermissive)
			result, err := svc.AnalyzeAndApply(context.Background(), testJob, testProfile)

			require.NoError(t, err)
			assert.Equal(t, expected.MatchScore, result.MatchScore)
			provider.AssertNumberOfCalls(t, "Generate", tt.calls)
		})
	}
}

func TestTransportErrorSurfacesAfterRetries(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("connection reset by peer"))

	svc := newTestService(provider, common.LLMModePermissive)
	_, err := svc.AnalyzeAndApply(context.Background(), testJob, testProfile)

	require.Error(t, err)
	provider.AssertNumberOfCalls(t, "Generate", 2)
}

func TestStrictMode(t *testing.T) {
	t.Run("missing provider", func(t *testing.T) {
		svc := newTestService(nil, common.LLMModeStrict)
		_, err := svc.AnalyzeAndApply(context.Background(), testJob, testProfile)
		assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
	})

	t.Run("rate limit surfaces", func(t *testing.T) {
		provider := &mockProvider{}
		provider.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))
		svc := newTestService(provider, common.LLMModeStrict)
		_, err := svc.SuggestRoles(context.Background(), testProfile)
		assert.ErrorIs(t, err, llm.ErrRateLimited)
	})

	t.Run("malformed surfaces", func(t *testing.T) {
		provider := &mockProvider{}
		provider.On("Generate", mock.Anything, mock.Anything).Return("no json", nil)
		svc := newTestService(provider, common.LLMModeStrict)
		_, err := svc.AnalyzeSkillGap(context.Background(), testJob, testProfile)
		assert.ErrorIs(t, err, llm.ErrMalformedResponse)
	})
}

func TestOfflineOperations(t *testing.T) {
	svc := newTestService(nil, common.LLMModePermissive)
	ctx := context.Background()

	roles, err := svc.SuggestRoles(ctx, testProfile)
	require.NoError(t, err)
	assert.NotEmpty(t, roles)

	jobs, err := svc.SearchJobs(ctx, testProfile, "golang")
	require.NoError(t, err)
	assert.Empty(t, jobs)

	questions, err := svc.GenerateInterviewQuestions(ctx, testJob, testProfile)
	require.NoError(t, err)
	assert.NotEmpty(t, questions)

	analysis, err := svc.AnalyzeResumeForJob(ctx, testJob, testProfile)
	require.NoError(t, err)
	assert.Contains(t, analysis.MissingKeywords, "kubernetes")

	msg, err := svc.GenerateNetworkingMessage(ctx, testJob, testProfile, models.NetworkingReferral)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Subject)

	gap, err := svc.AnalyzeSkillGap(ctx, testJob, testProfile)
	require.NoError(t, err)
	assert.NotEmpty(t, gap.MissingSkills)

	_, err = svc.ExtractJob(ctx, "https://example.com/job", "page")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestSearchJobsNormalizes(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Generate", mock.Anything, mock.Anything).
		Return(`[{"title": " Go Engineer ", "company": "Acme", "url": "https://acme.dev/jobs/1"}, {"title": "", "company": "Nope"}]`, nil)

	svc := newTestService(provider, common.LLMModePermissive)
	jobs, err := svc.SearchJobs(context.Background(), testProfile, "")

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Go Engineer", jobs[0].Title)
	assert.Equal(t, models.SourceAISearch, jobs[0].Source)
	assert.Equal(t, models.JobStatusNew, jobs[0].Status)
	assert.NotEmpty(t, jobs[0].ID)
}

func TestParseResume(t *testing.T) {
	ctx := context.Background()

	t.Run("inline pdf to capable provider", func(t *testing.T) {
		provider := &mockProvider{inline: true}
		provider.On("Generate", mock.Anything, mock.MatchedBy(func(r *interfaces.LLMRequest) bool {
			return r.MimeType == "application/pdf" && len(r.InlineData) == 4
		})).Return(`{"name": "Ada", "skills": ["Go"], "experienceLevel": "Senior Level", "resumeText": "..."}`, nil).Once()

		svc := newTestService(provider, common.LLMModePermissive)
		parsed, err := svc.ParseResume(ctx, []byte("%PDF"), "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, "Ada", parsed.Name)
		provider.AssertExpectations(t)
	})

	t.Run("pdf extracted for text-only provider", func(t *testing.T) {
		provider := &mockProvider{inline: false}
		provider.On("Generate", mock.Anything, mock.MatchedBy(func(r *interfaces.LLMRequest) bool {
			return len(r.InlineData) == 0 && len(r.Prompt) > 0
		})).Return(`{"name": "Ada L", "skills": [], "experienceLevel": "Mid Level", "resumeText": ""}`, nil).Once()

		svc := newTestService(provider, common.LLMModePermissive)
		parsed, err := svc.ParseResume(ctx, []byte("%PDF"), "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, "Ada L", parsed.Name)
		assert.Contains(t, parsed.ResumeText, "Go developer")
	})

	t.Run("offline text resume", func(t *testing.T) {
		svc := newTestService(nil, common.LLMModePermissive)
		parsed, err := svc.ParseResume(ctx, []byte("Grace Hopper\ngrace@navy.mil\nCOBOL"), "text/plain; charset=utf-8")
		require.NoError(t, err)
		assert.Equal(t, "Grace Hopper", parsed.Name)
		assert.Equal(t, "grace@navy.mil", parsed.Email)
	})

	t.Run("unsupported format", func(t *testing.T) {
		svc := newTestService(nil, common.LLMModePermissive)
		_, err := svc.ParseResume(ctx, []byte{1, 2}, "image/png")
		assert.Error(t, err)
	})
}
