package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

const remoteOKBaseURL = "https://remoteok.com/api"

// RemoteOKSource fetches listings from the RemoteOK public API
type RemoteOKSource struct {
	httpSource
}

var _ interfaces.JobSource = (*RemoteOKSource)(nil)

// NewRemoteOKSource creates a RemoteOK adapter
func NewRemoteOKSource(logger arbor.ILogger, opts ...Option) *RemoteOKSource {
	return &RemoteOKSource{httpSource: newHTTPSource("RemoteOK", remoteOKBaseURL, logger, opts...)}
}

type remoteOKJob struct {
	Legal       string          `json:"legal"`
	ID          json.RawMessage `json:"id"`
	Date        string          `json:"date"`
	Company     string          `json:"company"`
	Position    string          `json:"position"`
	Tags        []string        `json:"tags"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	SalaryMin   int             `json:"salary_min"`
	SalaryMax   int             `json:"salary_max"`
	URL         string          `json:"url"`
	ApplyURL    string          `json:"apply_url"`
}

// Fetch queries RemoteOK by tag. The first element of the response is a legal notice.
func (s *RemoteOKSource) Fetch(ctx context.Context, query interfaces.JobQuery) ([]models.JobListing, error) {
	params := url.Values{}
	if tag := roleTag(query.Role); tag != "" {
		params.Set("tag", tag)
	}

	var resp []remoteOKJob
	if err := s.getJSON(ctx, params, &resp); err != nil {
		return nil, err
	}

	jobs := make([]models.JobListing, 0, len(resp))
	for _, r := range resp {
		if r.Legal != "" || strings.TrimSpace(r.Position) == "" {
			continue
		}
		job := newListing(s.Name())
		job.Title = r.Position
		job.Company = r.Company
		job.Location = r.Location
		if job.Location == "" {
			job.Location = "Remote"
		}
		job.URL = r.URL
		if job.URL == "" {
			job.URL = r.ApplyURL
		}
		job.Description = r.Description
		job.Salary = salaryRange(positive(r.SalaryMin), positive(r.SalaryMax), "USD")
		job.PostedAt = parseTime(r.Date)
		jobs = append(jobs, job)
	}
	return limitJobs(jobs, query.Limit), nil
}

// roleTag turns "Backend Engineer" into the "backend-engineer" tag form
func roleTag(role string) string {
	return strings.Join(strings.Fields(strings.ToLower(role)), "-")
}

func positive(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}
