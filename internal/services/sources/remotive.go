package sources

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// RemotiveSource fetches listings from the Remotive public API
type RemotiveSource struct {
	httpSource
}

var _ interfaces.JobSource = (*RemotiveSource)(nil)

// NewRemotiveSource creates a Remotive adapter
func NewRemotiveSource(logger arbor.ILogger, opts ...Option) *RemotiveSource {
	return &RemotiveSource{httpSource: newHTTPSource("Remotive", remotiveBaseURL, logger, opts...)}
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID                        int    `json:"id"`
	URL                       string `json:"url"`
	Title                     string `json:"title"`
	CompanyName               string `json:"company_name"`
	Category                  string `json:"category"`
	JobType                   string `json:"job_type"`
	PublicationDate           string `json:"publication_date"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
	Salary                    string `json:"salary"`
	Description               string `json:"description"`
}

// Fetch searches Remotive for the role
func (s *RemotiveSource) Fetch(ctx context.Context, query interfaces.JobQuery) ([]models.JobListing, error) {
	params := url.Values{}
	if query.Role != "" {
		params.Set("search", query.Role)
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	var resp remotiveResponse
	if err := s.getJSON(ctx, params, &resp); err != nil {
		return nil, err
	}

	jobs := make([]models.JobListing, 0, len(resp.Jobs))
	for _, r := range resp.Jobs {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		job := newListing(s.Name())
		job.Title = r.Title
		job.Company = r.CompanyName
		job.Location = r.CandidateRequiredLocation
		if job.Location == "" {
			job.Location = "Remote"
		}
		job.URL = r.URL
		job.Description = r.Description
		job.Salary = r.Salary
		job.JobType = strings.ReplaceAll(r.JobType, "_", " ")
		job.PostedAt = parseTime(r.PublicationDate)
		jobs = append(jobs, job)
	}
	return limitJobs(jobs, query.Limit), nil
}

func limitJobs(jobs []models.JobListing, limit int) []models.JobListing {
	if limit > 0 && len(jobs) > limit {
		return jobs[:limit]
	}
	return jobs
}
