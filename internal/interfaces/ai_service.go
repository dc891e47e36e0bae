package interfaces

import (
	"context"

	"github.com/ternarybob/jobpilot/internal/models"
)

// AIService is the typed operation set over the LLM with local fallbacks.
// Implementations never return a nil result together with a nil error.
type AIService interface {
	ParseResume(ctx context.Context, data []byte, mimeType string) (*models.ParsedResume, error)
	SuggestRoles(ctx context.Context, profile models.UserProfile) ([]string, error)
	SearchJobs(ctx context.Context, profile models.UserProfile, query string) ([]models.JobListing, error)
	AnalyzeAndApply(ctx context.Context, job models.JobListing, profile models.UserProfile) (*models.MatchResult, error)
	GenerateInterviewQuestions(ctx context.Context, job models.JobListing, profile models.UserProfile) ([]models.InterviewQuestion, error)
	AnalyzeResumeForJob(ctx context.Context, job models.JobListing, profile models.UserProfile) (*models.ResumeAnalysis, error)
	GenerateNetworkingMessage(ctx context.Context, job models.JobListing, profile models.UserProfile, kind models.NetworkingKind) (*models.NetworkingMessage, error)
	AnalyzeSkillGap(ctx context.Context, job models.JobListing, profile models.UserProfile) (*models.SkillGapResult, error)

	// ExtractJob pulls a single listing out of page text; used by the URL importer
	ExtractJob(ctx context.Context, pageURL, pageText string) (*models.JobListing, error)
}

// JobMatcher is the slice of AIService the AutoPilot depends on
type JobMatcher interface {
	AnalyzeAndApply(ctx context.Context, job models.JobListing, profile models.UserProfile) (*models.MatchResult, error)
}
