package offline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/jobpilot/internal/models"
)

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("rust go rust python the and python rust", 2)
	assert.Equal(t, []string{"rust", "python"}, kws)

	// Ties are alphabetical
	assert.Equal(t, []string{"alpha", "zeta"}, ExtractKeywords("zeta alpha", 0))

	// Stop words and short tokens are dropped, symbols in tech names kept
	assert.Equal(t, []string{"c++", "node.js"}, ExtractKeywords("The C++ and Node.js we use", 0))
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name        string
		resume      string
		description string
		expected    int
	}{
		{"partial overlap", "golang kubernetes", "golang golang kubernetes python", 87},
		{"no overlap", "java", "python rust", ScoreFloor},
		{"full overlap clamps", "python rust", "python rust", ScoreCeiling},
		{"empty description", "python", "", ScoreFloor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchScore(tt.resume, tt.description))
		})
	}
}

func TestMatchScoreDeterministic(t *testing.T) {
	resume := "Backend engineer: Go, PostgreSQL, Kafka, Kubernetes, gRPC, observability"
	description := "We need a backend engineer with Kafka, Kubernetes, Terraform, PostgreSQL and Rust. Kafka streaming at scale."

	first := MatchScore(resume, description)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, MatchScore(resume, description))
	}
	assert.GreaterOrEqual(t, first, ScoreFloor)
	assert.LessOrEqual(t, first, ScoreCeiling)
}

func TestSuggestRoles(t *testing.T) {
	roles := SuggestRoles("Built dashboards in React and CSS", []string{"Docker"}, 5)
	assert.Equal(t, []string{"Frontend Developer", "DevOps Engineer"}, roles)

	assert.Equal(t, []string{DefaultRole}, SuggestRoles("", nil, 5))

	limited := SuggestRoles("react kubernetes aws pytorch", nil, 2)
	assert.Len(t, limited, 2)
}

func TestParseResume(t *testing.T) {
	text := "Ada Lovelace\nada@example.com | +1 555 123 4567\nSenior engineer with 8 years building Go and Kubernetes platforms on AWS.\n"

	parsed := ParseResume(text)
	assert.Equal(t, "Ada Lovelace", parsed.Name)
	assert.Equal(t, "ada@example.com", parsed.Email)
	assert.Equal(t, "+1 555 123 4567", parsed.Phone)
	assert.Equal(t, string(models.ExperienceSenior), parsed.ExperienceLevel)
	assert.Subset(t, parsed.Skills, []string{"Go", "Kubernetes", "AWS"})
	assert.Contains(t, parsed.Summary, "8 years")
	assert.Equal(t, text[:len(text)-1], parsed.ResumeText)
}

func TestAnalyzeAndContent(t *testing.T) {
	job := models.JobListing{
		Title:       "Platform Engineer",
		Company:     "Acme",
		Description: "Kubernetes Terraform Kubernetes observability Terraform kafka",
	}
	profile := models.UserProfile{
		Name:            "Ada",
		ResumeText:      "Kubernetes operator development",
		Skills:          []string{"Kubernetes", "Go"},
		ExperienceLevel: models.ExperienceSenior,
	}

	result := Analyze(job, profile)
	assert.Equal(t, result.MatchScore, Analyze(job, profile).MatchScore)
	assert.Contains(t, result.CoverLetter, "Platform Engineer position at Acme")
	assert.Contains(t, result.CoverLetter, "Ada")
	assert.Contains(t, result.Notes, "Offline estimate")

	questions := InterviewQuestions(job, profile)
	require.GreaterOrEqual(t, len(questions), 3)
	assert.Contains(t, questions[0].Question, "Acme")

	gap := SkillGap(job, profile)
	assert.Contains(t, gap.MissingSkills, "terraform")
	assert.NotContains(t, gap.MissingSkills, "kubernetes")
	assert.Len(t, gap.LearningPath, len(gap.MissingSkills))

	analysis := ResumeAnalysis(job, profile)
	assert.Contains(t, analysis.MissingKeywords, "terraform")
	assert.Contains(t, analysis.OptimizedSummary, "Senior Level")

	email := NetworkingMessage(job, profile, models.NetworkingEmail)
	assert.NotEmpty(t, email.Subject)
	linkedin := NetworkingMessage(job, profile, models.NetworkingLinkedIn)
	assert.Empty(t, linkedin.Subject)
	assert.Contains(t, linkedin.Message, "Acme")
}
