package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/llm"
	"github.com/ternarybob/jobpilot/internal/services/llm/offline"
)

var _ interfaces.AIService = (*Service)(nil)

// ErrNoResult is returned by operations with no local fallback when the model gave nothing usable
var ErrNoResult = errors.New("no result available")

// inlineCapable is implemented by providers that accept document attachments
type inlineCapable interface {
	SupportsInlineData(mimeType string) bool
}

// Service implements interfaces.AIService over an optional LLM provider.
// A nil provider routes every call to the offline heuristics (permissive mode only).
type Service struct {
	provider  interfaces.LLMProvider
	mode      common.LLMMode
	retry     llm.RetryPolicy
	extractor interfaces.PDFExtractor
	validate  *validator.Validate
	logger    arbor.ILogger
}

// NewService creates the AI facade
func NewService(provider interfaces.LLMProvider, config *common.Config, extractor interfaces.PDFExtractor, logger arbor.ILogger) *Service {
	mode := config.LLM.Mode
	if mode == "" {
		mode = common.LLMModePermissive
	}
	if provider == nil {
		logger.Warn().Str("mode", string(mode)).Msg("No LLM provider configured, AI calls use offline heuristics")
	}
	return &Service{
		provider:  provider,
		mode:      mode,
		retry:     llm.NewRetryPolicy(config),
		extractor: extractor,
		validate:  validator.New(),
		logger:    logger,
	}
}

// WithRetryPolicy overrides the retry policy
func (s *Service) WithRetryPolicy(policy llm.RetryPolicy) *Service {
	s.retry = policy
	return s
}

// Online reports whether a provider is configured
func (s *Service) Online() bool {
	return s.provider != nil
}

// call asks the provider and decodes into out. A false result with nil error means
// the caller should substitute its offline fallback.
func (s *Service) call(ctx context.Context, operation string, request *interfaces.LLMRequest, out interface{}) (bool, error) {
	if s.provider == nil {
		if s.mode == common.LLMModeStrict {
			return false, llm.ErrMissingAPIKey
		}
		return false, nil
	}

	if request.SystemInstruction == "" {
		request.SystemInstruction = systemInstruction
	}

	start := time.Now()
	text, err := s.retry.Do(ctx, s.logger, operation, func(ctx context.Context) (string, error) {
		return s.provider.Generate(ctx, request)
	})
	if err != nil {
		if s.mode == common.LLMModePermissive && errors.Is(err, llm.ErrRateLimited) {
			s.logger.Warn().Str("operation", operation).Msg("Rate limited, using offline fallback")
			return false, nil
		}
		return false, err
	}

	if !llm.DecodeJSON(text, out) {
		return s.malformed(operation, fmt.Errorf("%w: no JSON found", llm.ErrMalformedResponse))
	}
	if err := s.validateResult(out); err != nil {
		return s.malformed(operation, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err))
	}

	s.logger.Debug().
		Str("operation", operation).
		Str("provider", s.provider.Name()).
		Dur("elapsed", time.Since(start)).
		Msg("LLM call completed")
	return true, nil
}

func (s *Service) malformed(operation string, err error) (bool, error) {
	if s.mode == common.LLMModeStrict {
		return false, err
	}
	s.logger.Warn().Str("operation", operation).Err(err).Msg("Malformed LLM response, using offline fallback")
	return false, nil
}

// validateResult applies struct tags to struct results and each element of slices of structs
func (s *Service) validateResult(out interface{}) error {
	switch v := out.(type) {
	case *models.MatchResult, *models.ResumeAnalysis:
		return s.validate.Struct(v)
	case *[]models.InterviewQuestion:
		for i := range *v {
			if err := s.validate.Struct(&(*v)[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseResume extracts a structured resume from document bytes
func (s *Service) ParseResume(ctx context.Context, data []byte, mimeType string) (*models.ParsedResume, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("resume is empty")
	}
	mimeType = normalizeMime(mimeType)

	request := &interfaces.LLMRequest{OutputSchema: parsedResumeSchema}
	var text string
	if capable, ok := s.provider.(inlineCapable); ok && capable.SupportsInlineData(mimeType) {
		request.InlineData = data
		request.MimeType = mimeType
		request.Prompt = parseResumePrompt("")
	} else {
		var err error
		if text, err = s.resumeText(ctx, data, mimeType); err != nil {
			return nil, err
		}
		request.Prompt = parseResumePrompt(text)
	}

	var parsed models.ParsedResume
	ok, err := s.call(ctx, "parse_resume", request, &parsed)
	if err != nil {
		return nil, err
	}
	if ok {
		if parsed.ResumeText == "" {
			parsed.ResumeText = text
		}
		return &parsed, nil
	}

	if text == "" {
		if text, err = s.resumeText(ctx, data, mimeType); err != nil {
			return nil, err
		}
	}
	fallback := offline.ParseResume(text)
	return &fallback, nil
}

func (s *Service) resumeText(ctx context.Context, data []byte, mimeType string) (string, error) {
	switch {
	case mimeType == "application/pdf":
		if s.extractor == nil {
			return "", fmt.Errorf("no PDF extractor available")
		}
		text, err := s.extractor.ExtractText(ctx, data)
		if err != nil {
			return "", fmt.Errorf("failed to extract resume text: %w", err)
		}
		return text, nil
	case strings.HasPrefix(mimeType, "text/"), mimeType == "application/octet-stream", mimeType == "":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported resume format %s", mimeType)
	}
}

// SuggestRoles proposes job titles for the profile
func (s *Service) SuggestRoles(ctx context.Context, profile models.UserProfile) ([]string, error) {
	var roles []string
	ok, err := s.call(ctx, "suggest_roles", &interfaces.LLMRequest{
		Prompt:       suggestRolesPrompt(profile),
		OutputSchema: rolesSchema,
	}, &roles)
	if err != nil {
		return nil, err
	}
	if ok && len(roles) > 0 {
		return dedupeStrings(roles), nil
	}
	return offline.SuggestRoles(profile.ResumeText, profile.Skills, 5), nil
}

type searchedJob struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Salary      string `json:"salary"`
}

// SearchJobs asks the model for openings. There is no offline equivalent, so the
// fallback is an empty list.
func (s *Service) SearchJobs(ctx context.Context, profile models.UserProfile, query string) ([]models.JobListing, error) {
	var found []searchedJob
	ok, err := s.call(ctx, "search_jobs", &interfaces.LLMRequest{
		Prompt:       searchJobsPrompt(profile, query),
		OutputSchema: jobSearchSchema,
	}, &found)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.JobListing{}, nil
	}

	now := time.Now().UTC()
	jobs := make([]models.JobListing, 0, len(found))
	for _, f := range found {
		if strings.TrimSpace(f.Title) == "" {
			continue
		}
		jobs = append(jobs, models.JobListing{
			ID:          common.NewJobID(),
			Title:       strings.TrimSpace(f.Title),
			Company:     strings.TrimSpace(f.Company),
			Location:    strings.TrimSpace(f.Location),
			URL:         strings.TrimSpace(f.URL),
			Description: f.Description,
			Salary:      f.Salary,
			Source:      models.SourceAISearch,
			Status:      models.JobStatusNew,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return jobs, nil
}

// AnalyzeAndApply scores the job against the profile and drafts a cover letter
func (s *Service) AnalyzeAndApply(ctx context.Context, job models.JobListing, profile models.UserProfile) (*models.MatchResult, error) {
	var result models.MatchResult
	ok, err := s.call(ctx, "analyze_and_apply", &interfaces.LLMRequest{
		Prompt:       analyzePrompt(job, profile),
		OutputSchema: matchSchema,
	}, &result)
	if err != nil {
		return nil, err
	}
	if !ok {
		result = offline.Analyze(job, profile)
	}
	return &result, nil
}

// GenerateInterviewQuestions drafts likely questions with suggested answers
func (s *Service) GenerateInterviewQuestions(ctx context.Context, job models.JobListing, profile models.UserProfile) ([]models.InterviewQuestion, error) {
	var questions []models.InterviewQuestion
	ok, err := s.call(ctx, "interview_questions", &interfaces.LLMRequest{
		Prompt:       interviewPrompt(job, profile),
		OutputSchema: interviewSchema,
	}, &questions)
	if err != nil {
		return nil, err
	}
	if !ok || len(questions) == 0 {
		questions = offline.InterviewQuestions(job, profile)
	}
	return questions, nil
}

// AnalyzeResumeForJob reports how to tailor the resume to the job
func (s *Service) AnalyzeResumeForJob(ctx context.Context, job models.JobListing, profile models.UserProfile) (*models.ResumeAnalysis, error) {
	var analysis models.ResumeAnalysis
	ok, err := s.call(ctx, "resume_analysis", &interfaces.LLMRequest{
		Prompt:       resumeAnalysisPrompt(job, profile),
		OutputSchema: resumeAnalysisSchema,
	}, &analysis)
	if err != nil {
		return nil, err
	}
	if !ok {
		analysis = offline.ResumeAnalysis(job, profile)
	}
	return &analysis, nil
}

// GenerateNetworkingMessage drafts an outreach message of the given kind
func (s *Service) GenerateNetworkingMessage(ctx context.Context, job models.JobListing, profile models.UserProfile, kind models.NetworkingKind) (*models.NetworkingMessage, error) {
	var message models.NetworkingMessage
	ok, err := s.call(ctx, "networking_message", &interfaces.LLMRequest{
		Prompt:       networkingPrompt(job, profile, kind),
		OutputSchema: networkingSchema,
	}, &message)
	if err != nil {
		return nil, err
	}
	if !ok || message.Message == "" {
		message = offline.NetworkingMessage(job, profile, kind)
	}
	if kind == models.NetworkingLinkedIn {
		message.Subject = ""
	}
	return &message, nil
}

// AnalyzeSkillGap lists missing skills with a learning path
func (s *Service) AnalyzeSkillGap(ctx context.Context, job models.JobListing, profile models.UserProfile) (*models.SkillGapResult, error) {
	var gap models.SkillGapResult
	ok, err := s.call(ctx, "skill_gap", &interfaces.LLMRequest{
		Prompt:       skillGapPrompt(job, profile),
		OutputSchema: skillGapSchema,
	}, &gap)
	if err != nil {
		return nil, err
	}
	if !ok {
		gap = offline.SkillGap(job, profile)
	}
	return &gap, nil
}

// ExtractJob pulls a listing out of page text. Without a usable model result it
// returns ErrNoResult so the caller can apply its own extraction.
func (s *Service) ExtractJob(ctx context.Context, pageURL, pageText string) (*models.JobListing, error) {
	var extracted searchedJob
	ok, err := s.call(ctx, "extract_job", &interfaces.LLMRequest{
		Prompt:       extractJobPrompt(pageURL, pageText),
		OutputSchema: extractJobSchema,
	}, &extracted)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(extracted.Title) == "" {
		return nil, ErrNoResult
	}

	return &models.JobListing{
		Title:       strings.TrimSpace(extracted.Title),
		Company:     strings.TrimSpace(extracted.Company),
		Location:    strings.TrimSpace(extracted.Location),
		URL:         pageURL,
		Description: extracted.Description,
		Salary:      extracted.Salary,
	}, nil
}

func normalizeMime(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func dedupeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
