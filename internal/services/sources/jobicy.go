package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

const (
	jobicyBaseURL = "https://jobicy.com/api/v2/remote-jobs"

	// jobicyMaxCount is the largest count the API accepts
	jobicyMaxCount = 50
)

// JobicySource fetches listings from the Jobicy public API
type JobicySource struct {
	httpSource
}

var _ interfaces.JobSource = (*JobicySource)(nil)

// NewJobicySource creates a Jobicy adapter
func NewJobicySource(logger arbor.ILogger, opts ...Option) *JobicySource {
	return &JobicySource{httpSource: newHTTPSource("Jobicy", jobicyBaseURL, logger, opts...)}
}

type jobicyResponse struct {
	Jobs []jobicyJob `json:"jobs"`
}

type jobicyJob struct {
	ID             json.RawMessage `json:"id"`
	URL            string          `json:"url"`
	JobTitle       string          `json:"jobTitle"`
	CompanyName    string          `json:"companyName"`
	JobGeo         string          `json:"jobGeo"`
	JobType        stringList      `json:"jobType"`
	JobExcerpt     string          `json:"jobExcerpt"`
	JobDescription string          `json:"jobDescription"`
	PubDate        string          `json:"pubDate"`
	SalaryMin      json.RawMessage `json:"annualSalaryMin"`
	SalaryMax      json.RawMessage `json:"annualSalaryMax"`
	SalaryCurrency string          `json:"salaryCurrency"`
}

// stringList accepts either a JSON string or an array of strings
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = []string{single}
	return nil
}

// rawScalar renders a JSON number or string without quotes
func rawScalar(raw json.RawMessage) string {
	v := strings.TrimSpace(string(raw))
	if v == "null" {
		return ""
	}
	return strings.Trim(v, `"`)
}

// Fetch queries Jobicy by tag and optional geo
func (s *JobicySource) Fetch(ctx context.Context, query interfaces.JobQuery) ([]models.JobListing, error) {
	params := url.Values{}
	count := query.Limit
	if count <= 0 || count > jobicyMaxCount {
		count = jobicyMaxCount
	}
	params.Set("count", strconv.Itoa(count))
	if query.Role != "" {
		params.Set("tag", query.Role)
	}
	if query.Region != "" {
		params.Set("geo", strings.ToLower(query.Region))
	}

	var resp jobicyResponse
	if err := s.getJSON(ctx, params, &resp); err != nil {
		return nil, err
	}

	jobs := make([]models.JobListing, 0, len(resp.Jobs))
	for _, r := range resp.Jobs {
		if strings.TrimSpace(r.JobTitle) == "" {
			continue
		}
		job := newListing(s.Name())
		job.Title = r.JobTitle
		job.Company = r.CompanyName
		job.Location = r.JobGeo
		if job.Location == "" {
			job.Location = "Remote"
		}
		job.URL = r.URL
		job.Description = r.JobDescription
		if job.Description == "" {
			job.Description = r.JobExcerpt
		}
		job.JobType = strings.Join(r.JobType, ", ")
		job.Salary = salaryRange(rawScalar(r.SalaryMin), rawScalar(r.SalaryMax), r.SalaryCurrency)
		job.PostedAt = parseTime(r.PubDate)
		jobs = append(jobs, job)
	}
	return limitJobs(jobs, query.Limit), nil
}

// salaryRange formats "min - max CUR", tolerating either bound missing
func salaryRange(lo, hi, currency string) string {
	if lo == "0" {
		lo = ""
	}
	if hi == "0" {
		hi = ""
	}
	var s string
	switch {
	case lo != "" && hi != "":
		s = lo + " - " + hi
	case lo != "":
		s = lo + "+"
	case hi != "":
		s = "up to " + hi
	default:
		return ""
	}
	if currency != "" {
		s += " " + currency
	}
	return s
}
