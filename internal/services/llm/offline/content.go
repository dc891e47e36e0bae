package offline

import (
	"fmt"
	"strings"

	"github.com/ternarybob/jobpilot/internal/models"
)

// Analyze produces a match result from keyword overlap and a templated cover letter
func Analyze(job models.JobListing, profile models.UserProfile) models.MatchResult {
	text := ProfileText(profile.ResumeText, profile.Skills)
	score := MatchScore(text, job.Title+"\n"+job.Description)
	matched, missing := Overlap(text, job.Title+"\n"+job.Description)

	notes := fmt.Sprintf("Offline estimate from keyword overlap (%d of %d key terms matched).",
		len(matched), len(matched)+len(missing))
	if len(missing) > 0 {
		notes += " Missing: " + strings.Join(limit(missing, 5), ", ") + "."
	}

	return models.MatchResult{
		MatchScore:  score,
		CoverLetter: CoverLetter(job, profile, matched),
		Notes:       notes,
	}
}

// CoverLetter renders a short letter naming the strongest overlapping terms
func CoverLetter(job models.JobListing, profile models.UserProfile, matched []string) string {
	name := profile.Name
	if name == "" {
		name = "the applicant"
	}
	company := job.Company
	if company == "" {
		company = "your team"
	}

	strengths := limit(profile.Skills, 4)
	if len(matched) > 0 {
		strengths = limit(matched, 4)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear Hiring Manager,\n\n")
	fmt.Fprintf(&b, "I am writing to apply for the %s position at %s.", job.Title, company)
	if len(strengths) > 0 {
		fmt.Fprintf(&b, " My background in %s aligns closely with what this role calls for.", joinHuman(strengths))
	}
	fmt.Fprintf(&b, "\n\nI would welcome the opportunity to discuss how I can contribute to %s.\n\n", company)
	fmt.Fprintf(&b, "Sincerely,\n%s", name)
	return b.String()
}

// InterviewQuestions returns generic behavioural questions plus one per missing keyword
func InterviewQuestions(job models.JobListing, profile models.UserProfile) []models.InterviewQuestion {
	_, missing := Overlap(ProfileText(profile.ResumeText, profile.Skills), job.Description)
	company := job.Company
	if company == "" {
		company = "this company"
	}

	questions := []models.InterviewQuestion{
		{
			Question:        fmt.Sprintf("Why do you want to work at %s?", company),
			SuggestedAnswer: fmt.Sprintf("Connect the %s role to your goals and to what %s builds.", job.Title, company),
			KeyPoints:       []string{"Research the product", "Link to your experience", "Show motivation"},
		},
		{
			Question:        "Tell me about a challenging project you delivered.",
			SuggestedAnswer: "Use the STAR format: situation, task, action, result.",
			KeyPoints:       []string{"Quantify the result", "Explain your decisions"},
		},
		{
			Question:        "How do you handle disagreements within a team?",
			SuggestedAnswer: "Describe listening first, grounding the discussion in data, and committing once decided.",
			KeyPoints:       []string{"Empathy", "Evidence", "Follow-through"},
		},
	}

	for _, kw := range limit(missing, 2) {
		questions = append(questions, models.InterviewQuestion{
			Question:        fmt.Sprintf("What is your experience with %s?", kw),
			SuggestedAnswer: fmt.Sprintf("Be honest about your exposure to %s and describe how you would ramp up.", kw),
			KeyPoints:       []string{"Related experience", "Learning plan"},
		})
	}
	return questions
}

// SkillGap lists the top job keywords missing from the profile with a learning step each
func SkillGap(job models.JobListing, profile models.UserProfile) models.SkillGapResult {
	_, missing := Overlap(ProfileText(profile.ResumeText, profile.Skills), job.Description)
	missing = limit(missing, 5)

	path := make([]models.LearningStep, 0, len(missing))
	for _, kw := range missing {
		path = append(path, models.LearningStep{
			Skill:      kw,
			Resource:   fmt.Sprintf("Official documentation and an introductory course on %s", kw),
			ActionItem: fmt.Sprintf("Build a small feature that uses %s and add it to your portfolio", kw),
		})
	}

	idea := fmt.Sprintf("Build a small project resembling the %s work at %s", job.Title, job.Company)
	if len(missing) > 0 {
		idea += " using " + joinHuman(limit(missing, 3))
	}

	return models.SkillGapResult{
		MissingSkills: append([]string{}, missing...),
		LearningPath:  path,
		ProjectIdea:   idea + ".",
	}
}

// ResumeAnalysis reports the overlap score and the keywords to add
func ResumeAnalysis(job models.JobListing, profile models.UserProfile) models.ResumeAnalysis {
	text := ProfileText(profile.ResumeText, profile.Skills)
	_, missing := Overlap(text, job.Description)
	missing = limit(missing, 8)

	improvements := []string{"Lead each bullet with a measurable outcome"}
	for _, kw := range limit(missing, 3) {
		improvements = append(improvements, fmt.Sprintf("Mention any experience with %s explicitly", kw))
	}

	summary := fmt.Sprintf("%s candidate targeting %s roles", profile.ExperienceLevel, job.Title)
	if skills := limit(profile.Skills, 4); len(skills) > 0 {
		summary += " with hands-on experience in " + joinHuman(skills)
	}

	return models.ResumeAnalysis{
		Score:                 MatchScore(text, job.Description),
		MissingKeywords:       append([]string{}, missing...),
		SuggestedImprovements: improvements,
		OptimizedSummary:      summary + ".",
	}
}

// NetworkingMessage drafts an outreach message of the given kind
func NetworkingMessage(job models.JobListing, profile models.UserProfile, kind models.NetworkingKind) models.NetworkingMessage {
	skills := joinHuman(limit(profile.Skills, 3))
	if skills == "" {
		skills = "software engineering"
	}

	switch kind {
	case models.NetworkingEmail:
		return models.NetworkingMessage{
			Subject: fmt.Sprintf("Interest in the %s role at %s", job.Title, job.Company),
			Message: fmt.Sprintf("Hello,\n\nI came across the %s opening at %s and believe my experience with %s would be a strong fit. Would you be open to a short conversation?\n\nBest regards,\n%s",
				job.Title, job.Company, skills, profile.Name),
		}
	case models.NetworkingReferral:
		return models.NetworkingMessage{
			Subject: fmt.Sprintf("Referral request: %s at %s", job.Title, job.Company),
			Message: fmt.Sprintf("Hi,\n\nI'm applying for the %s role at %s. Given my background in %s, would you be comfortable referring me or sharing who I should speak with?\n\nThanks,\n%s",
				job.Title, job.Company, skills, profile.Name),
		}
	default:
		return models.NetworkingMessage{
			Message: fmt.Sprintf("Hi! I noticed the %s role at %s. I work with %s and would love to connect and learn more about the team.",
				job.Title, job.Company, skills),
		}
	}
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func joinHuman(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
