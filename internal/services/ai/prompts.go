package ai

import (
	"fmt"
	"strings"

	"github.com/ternarybob/jobpilot/internal/models"
)

const systemInstruction = "You are an expert technical recruiter and career coach. " +
	"Answer only with JSON matching the requested shape. Do not invent facts about the candidate."

// maxPromptDescription bounds job text sent to the model
const maxPromptDescription = 6000

func profileBlock(p models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CANDIDATE\nName: %s\nLevel: %s\n", p.Name, p.ExperienceLevel)
	if len(p.TargetRoles) > 0 {
		fmt.Fprintf(&b, "Target roles: %s\n", strings.Join(p.TargetRoles, ", "))
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.Skills, ", "))
	}
	if len(p.PreferredLocations) > 0 {
		fmt.Fprintf(&b, "Preferred locations: %s\n", strings.Join(p.PreferredLocations, ", "))
	}
	if p.ResumeText != "" {
		fmt.Fprintf(&b, "Resume:\n%s\n", truncate(p.ResumeText, maxPromptDescription))
	}
	return b.String()
}

func jobBlock(j models.JobListing) string {
	return fmt.Sprintf("JOB\nTitle: %s\nCompany: %s\nLocation: %s\nDescription:\n%s\n",
		j.Title, j.Company, j.Location, truncate(j.Description, maxPromptDescription))
}

func parseResumePrompt(text string) string {
	prompt := "Extract the candidate's details from this resume. Estimate experienceLevel from seniority and years of experience. " +
		"Return resumeText as the full plain text."
	if text != "" {
		prompt += "\n\nRESUME\n" + text
	}
	return prompt
}

func suggestRolesPrompt(p models.UserProfile) string {
	return profileBlock(p) + "\nSuggest 5 job titles this candidate should search for, most relevant first. Return a JSON array of strings."
}

func searchJobsPrompt(p models.UserProfile, query string) string {
	if query == "" {
		query = strings.Join(p.TargetRoles, " OR ")
	}
	return profileBlock(p) + fmt.Sprintf("\nList up to 10 currently open remote-friendly job postings matching %q for this candidate. "+
		"Only include postings with a real application URL.", query)
}

func analyzePrompt(j models.JobListing, p models.UserProfile) string {
	return profileBlock(p) + "\n" + jobBlock(j) +
		"\nScore the candidate's fit for this job from 0 to 100, write a concise tailored cover letter (under 250 words) " +
		"and give short notes explaining the score."
}

func interviewPrompt(j models.JobListing, p models.UserProfile) string {
	return profileBlock(p) + "\n" + jobBlock(j) +
		"\nWrite 5 likely interview questions for this job with a suggested answer drawn from the candidate's background and 2-4 key points each."
}

func resumeAnalysisPrompt(j models.JobListing, p models.UserProfile) string {
	return profileBlock(p) + "\n" + jobBlock(j) +
		"\nAssess how well the resume targets this job. List missing keywords, concrete improvements and an optimized summary."
}

func networkingPrompt(j models.JobListing, p models.UserProfile, kind models.NetworkingKind) string {
	var style string
	switch kind {
	case models.NetworkingEmail:
		style = "a cold email to the hiring manager with a subject line"
	case models.NetworkingReferral:
		style = "a referral request to an employee, with a subject line"
	default:
		style = "a LinkedIn connection note under 300 characters with an empty subject"
	}
	return profileBlock(p) + "\n" + jobBlock(j) + fmt.Sprintf("\nDraft %s about this job.", style)
}

func skillGapPrompt(j models.JobListing, p models.UserProfile) string {
	return profileBlock(p) + "\n" + jobBlock(j) +
		"\nIdentify skills the job requires that the candidate lacks, a learning path per skill and one portfolio project idea."
}

func extractJobPrompt(pageURL, pageText string) string {
	return fmt.Sprintf("Extract the job posting from this page (%s). Return plain-text fields.\n\nPAGE\n%s",
		pageURL, truncate(pageText, maxPromptDescription*2))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
