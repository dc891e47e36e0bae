// -----------------------------------------------------------------------
// Job Listing - a discovered or manually entered job and its pipeline state
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus is the pipeline status of a job listing.
//
// Automated graph (AutoPilot only):
//
//	new ──► analyzing ──► applied | skipped | failed
//
// Manual graph (user pipeline board):
//
//	new | skipped | failed ──► applied ──► interviewing ──► offer
//	failed ──► new                │              │            │
//	                              └──────────────┴────────────┴──► rejected
type JobStatus string

const (
	JobStatusNew          JobStatus = "new"
	JobStatusAnalyzing    JobStatus = "analyzing"
	JobStatusApplied      JobStatus = "applied"
	JobStatusSkipped      JobStatus = "skipped"
	JobStatusFailed       JobStatus = "failed"
	JobStatusInterviewing JobStatus = "interviewing"
	JobStatusOffer        JobStatus = "offer"
	JobStatusRejected     JobStatus = "rejected"
)

// Source tags for listings not produced by a job-board adapter
const (
	SourceManual      = "Manual"
	SourceImported    = "Imported"
	SourceAISearch    = "AI Search"
	SourcePlaceholder = "Placeholder"
)

var automatedTransitions = map[JobStatus][]JobStatus{
	JobStatusNew:       {JobStatusAnalyzing},
	JobStatusAnalyzing: {JobStatusApplied, JobStatusSkipped, JobStatusFailed},
}

var manualTransitions = map[JobStatus][]JobStatus{
	JobStatusNew:          {JobStatusApplied},
	JobStatusSkipped:      {JobStatusApplied},
	JobStatusFailed:       {JobStatusApplied, JobStatusNew},
	JobStatusApplied:      {JobStatusInterviewing, JobStatusRejected},
	JobStatusInterviewing: {JobStatusOffer, JobStatusRejected},
	JobStatusOffer:        {JobStatusRejected},
}

// ParseJobStatus converts a raw string to a JobStatus, returning an error for unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case JobStatusNew, JobStatusAnalyzing, JobStatusApplied, JobStatusSkipped,
		JobStatusFailed, JobStatusInterviewing, JobStatusOffer, JobStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// CanTransitionAutomated reports whether the AutoPilot may move a job from → to.
func CanTransitionAutomated(from, to JobStatus) bool {
	return contains(automatedTransitions[from], to)
}

// CanTransitionManual reports whether a user pipeline action may move a job from → to.
// analyzing is owned by the AutoPilot and can be neither entered nor left manually.
func CanTransitionManual(from, to JobStatus) bool {
	return contains(manualTransitions[from], to)
}

// IsTerminalForAutomation returns true for statuses the AutoPilot never leaves or re-enters.
func IsTerminalForAutomation(s JobStatus) bool {
	return s != JobStatusNew && s != JobStatusAnalyzing
}

func contains(list []JobStatus, s JobStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// JobListing is a single job record in the queue.
// The URL is the deduplication key; the ID is used when the URL is empty.
type JobListing struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
	Salary      string     `json:"salary,omitempty"`
	JobType     string     `json:"jobType,omitempty"`
	PostedAt    *time.Time `json:"postedAt,omitempty"`
	Status      JobStatus  `json:"status"`

	MatchScore           *int                `json:"matchScore,omitempty"`
	GeneratedCoverLetter string              `json:"generatedCoverLetter,omitempty"`
	ApplicationNotes     string              `json:"applicationNotes,omitempty"`
	InterviewPrep        []InterviewQuestion `json:"interviewPrep,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DedupKey returns the key used to detect duplicate listings.
func (j *JobListing) DedupKey() string {
	if key := NormalizeURL(j.URL); key != "" {
		return key
	}
	return "id:" + j.ID
}

// IsPlaceholder reports whether the listing is the stand-in returned by an empty
// discovery. Placeholders are shown to the user but never queued or analysed.
func (j *JobListing) IsPlaceholder() bool {
	return j.Source == SourcePlaceholder
}

// Score returns the match score or -1 when the job has not been scored.
func (j *JobListing) Score() int {
	if j.MatchScore == nil {
		return -1
	}
	return *j.MatchScore
}

// Clone returns a deep copy safe to hand out of a locked section.
func (j *JobListing) Clone() JobListing {
	c := *j
	if j.MatchScore != nil {
		score := *j.MatchScore
		c.MatchScore = &score
	}
	if j.PostedAt != nil {
		posted := *j.PostedAt
		c.PostedAt = &posted
	}
	if j.InterviewPrep != nil {
		c.InterviewPrep = make([]InterviewQuestion, len(j.InterviewPrep))
		for i, q := range j.InterviewPrep {
			c.InterviewPrep[i] = q
			c.InterviewPrep[i].KeyPoints = append([]string(nil), q.KeyPoints...)
		}
	}
	return c
}

// NormalizeURL lowercases the scheme/host part and strips a trailing slash and fragment
// so trivially different spellings of one posting collapse to one key.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if i := strings.Index(u, "#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.Index(u, "://"); i >= 0 {
		rest := u[i+3:]
		host, path := rest, ""
		if j := strings.Index(rest, "/"); j >= 0 {
			host, path = rest[:j], rest[j:]
		}
		u = strings.ToLower(u[:i+3]+host) + path
	}
	return u
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
