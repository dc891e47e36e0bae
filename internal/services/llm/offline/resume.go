package offline

import (
	"regexp"
	"strings"

	"github.com/ternarybob/jobpilot/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRegex = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	yearsRegex = regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years|yrs)`)
)

// KnownSkills is matched case-insensitively against resume text
var KnownSkills = []string{
	"Go", "Python", "Java", "JavaScript", "TypeScript", "C#", "C++", "Rust", "Ruby", "PHP",
	"Kotlin", "Swift", "Scala", "SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis",
	"React", "Vue", "Angular", "Node.js", "Django", "Flask", "Spring", "GraphQL", "REST",
	"Docker", "Kubernetes", "Terraform", "AWS", "Azure", "GCP", "Linux", "Git",
	"Kafka", "Spark", "Airflow", "Pandas", "TensorFlow", "PyTorch", "Figma", "Agile",
}

// ParseResume extracts contact details, known skills and a level estimate from plain text
func ParseResume(text string) models.ParsedResume {
	text = strings.TrimSpace(text)
	parsed := models.ParsedResume{
		ResumeText: text,
		Skills:     MatchSkills(text),
	}

	lines := nonEmptyLines(text)
	if len(lines) > 0 && !emailRegex.MatchString(lines[0]) && len(lines[0]) <= 60 {
		parsed.Name = lines[0]
	}
	parsed.Email = emailRegex.FindString(text)
	parsed.Phone = strings.TrimSpace(phoneRegex.FindString(text))
	parsed.ExperienceLevel = string(estimateLevel(text))

	for _, line := range lines[1:] {
		if len(line) >= 40 {
			parsed.Summary = line
			break
		}
	}

	return parsed
}

// MatchSkills returns KnownSkills present in text, in KnownSkills order
func MatchSkills(text string) []string {
	lower := " " + strings.ToLower(text) + " "
	tokens := KeywordSet(text)

	skills := []string{}
	for _, skill := range KnownSkills {
		key := strings.ToLower(skill)
		if len(key) < MinKeywordLength {
			// Short names like "Go" need word boundaries
			if strings.Contains(lower, " "+key+" ") || strings.Contains(lower, " "+key+",") {
				skills = append(skills, skill)
			}
			continue
		}
		if _, ok := tokens[key]; ok || strings.Contains(lower, key) {
			skills = append(skills, skill)
		}
	}
	return skills
}

func estimateLevel(text string) models.ExperienceLevel {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "chief ") || strings.Contains(lower, "vice president") || strings.Contains(lower, "director"):
		return models.ExperienceExecutive
	case strings.Contains(lower, "principal") || strings.Contains(lower, "staff engineer") || strings.Contains(lower, "tech lead"):
		return models.ExperienceLead
	}

	if m := yearsRegex.FindStringSubmatch(text); len(m) == 2 {
		years := 0
		for _, r := range m[1] {
			years = years*10 + int(r-'0')
		}
		switch {
		case years >= 6:
			return models.ExperienceSenior
		case years >= 2:
			return models.ExperienceMid
		default:
			return models.ExperienceEntry
		}
	}

	if strings.Contains(lower, "senior") {
		return models.ExperienceSenior
	}
	if strings.Contains(lower, "graduate") || strings.Contains(lower, "intern") {
		return models.ExperienceEntry
	}
	return models.ExperienceMid
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
