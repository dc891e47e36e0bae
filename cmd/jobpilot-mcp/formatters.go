package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/jobpilot/internal/models"
)

const descriptionPreview = 300

// formatJobList formats job listings as markdown
func formatJobList(jobs []models.JobListing, total int, filter models.JobStatus) string {
	var sb strings.Builder
	if filter != "" {
		sb.WriteString(fmt.Sprintf("## Jobs with status %s (%d of %d)\n\n", filter, len(jobs), total))
	} else {
		sb.WriteString(fmt.Sprintf("## Jobs (%d of %d)\n\n", len(jobs), total))
	}

	if len(jobs) == 0 {
		sb.WriteString("No jobs found.\n")
		return sb.String()
	}

	for i := range jobs {
		job := &jobs[i]
		sb.WriteString(fmt.Sprintf("%d. **%s** at %s [%s]", i+1, job.Title, job.Company, job.Status))
		if job.MatchScore != nil {
			sb.WriteString(fmt.Sprintf(" score %d", *job.MatchScore))
		}
		sb.WriteString(fmt.Sprintf("\n   ID: %s", job.ID))
		if job.URL != "" {
			sb.WriteString(fmt.Sprintf(" | %s", job.URL))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatJob formats a single job as markdown
func formatJob(job *models.JobListing) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", job.Title))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("**Company:** %s\n", job.Company))
	if job.Location != "" {
		sb.WriteString(fmt.Sprintf("**Location:** %s\n", job.Location))
	}
	sb.WriteString(fmt.Sprintf("**Source:** %s\n", job.Source))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", job.Status))
	if job.MatchScore != nil {
		sb.WriteString(fmt.Sprintf("**Match score:** %d\n", *job.MatchScore))
	}
	if job.Salary != "" {
		sb.WriteString(fmt.Sprintf("**Salary:** %s\n", job.Salary))
	}
	if job.URL != "" {
		sb.WriteString(fmt.Sprintf("**URL:** %s\n", job.URL))
	}
	sb.WriteString(fmt.Sprintf("**Updated:** %s\n\n", job.UpdatedAt.Format(time.RFC3339)))

	if job.ApplicationNotes != "" {
		sb.WriteString("## Notes\n")
		sb.WriteString(job.ApplicationNotes)
		sb.WriteString("\n\n")
	}

	description := job.Description
	if len(description) > descriptionPreview {
		description = description[:descriptionPreview] + "..."
	}
	if description != "" {
		sb.WriteString("## Description\n")
		sb.WriteString(description)
		sb.WriteString("\n\n")
	}

	if job.GeneratedCoverLetter != "" {
		sb.WriteString("## Cover letter\n")
		sb.WriteString(job.GeneratedCoverLetter)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatStats(s models.Stats) string {
	var sb strings.Builder
	sb.WriteString("## Queue statistics\n\n")
	sb.WriteString(fmt.Sprintf("- Total found: %d\n", s.TotalFound))
	sb.WriteString(fmt.Sprintf("- Pending: %d\n", s.Pending))
	sb.WriteString(fmt.Sprintf("- Analyzing: %d\n", s.Analyzing))
	sb.WriteString(fmt.Sprintf("- Applied: %d\n", s.Applied))
	sb.WriteString(fmt.Sprintf("- Skipped: %d\n", s.Skipped))
	sb.WriteString(fmt.Sprintf("- Failed: %d\n", s.Failed))
	sb.WriteString(fmt.Sprintf("- Interviewing: %d\n", s.Interviewing))
	sb.WriteString(fmt.Sprintf("- Offers: %d\n", s.Offers))
	sb.WriteString(fmt.Sprintf("- Rejected: %d\n", s.Rejected))
	sb.WriteString(fmt.Sprintf("- Average match score: %.1f\n", s.AverageScore))
	return sb.String()
}

func formatLogs(logs []models.AutomationLog) string {
	if len(logs) == 0 {
		return "No log entries.\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## AutoPilot log (%d entries)\n\n", len(logs)))
	for _, entry := range logs {
		sb.WriteString(fmt.Sprintf("- %s [%s] %s\n", entry.Timestamp.Format(time.RFC3339), entry.Type, entry.Message))
	}
	return sb.String()
}
