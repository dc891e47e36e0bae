package offline

import "strings"

// DefaultRole is suggested when no rule matches
const DefaultRole = "Software Engineer"

type roleRule struct {
	terms []string
	role  string
}

// Evaluated in order; each role is suggested at most once
var roleRules = []roleRule{
	{[]string{"react", "vue", "angular", "frontend", "front-end", "css"}, "Frontend Developer"},
	{[]string{"node", "express", "django", "spring", "backend", "back-end", "golang", " go "}, "Backend Developer"},
	{[]string{"kubernetes", "docker", "terraform", "ci/cd", "devops", "ansible"}, "DevOps Engineer"},
	{[]string{"aws", "azure", "gcp", "cloud"}, "Cloud Engineer"},
	{[]string{"machine learning", "pytorch", "tensorflow", "deep learning", "llm"}, "Machine Learning Engineer"},
	{[]string{"pandas", "data analysis", "tableau", "power bi", "statistics"}, "Data Analyst"},
	{[]string{"spark", "airflow", "etl", "data pipeline", "snowflake"}, "Data Engineer"},
	{[]string{"ios", "android", "swift", "kotlin", "flutter", "react native"}, "Mobile Developer"},
	{[]string{"figma", " ux ", "ui design", "user research"}, "Product Designer"},
	{[]string{"product manager", "roadmap", "product management"}, "Product Manager"},
	{[]string{"selenium", "cypress", "qa", "test automation"}, "QA Engineer"},
	{[]string{"security engineer", "penetration", "soc analyst", "siem"}, "Security Engineer"},
	{[]string{"full stack", "full-stack", "fullstack"}, "Full Stack Developer"},
}

// SuggestRoles infers up to max job titles from resume text and skills by substring rules.
// Returns DefaultRole when nothing matches.
func SuggestRoles(resumeText string, skills []string, max int) []string {
	haystack := " " + strings.ToLower(resumeText+" "+strings.Join(skills, " ")) + " "

	var roles []string
	for _, rule := range roleRules {
		for _, term := range rule.terms {
			if strings.Contains(haystack, term) {
				roles = append(roles, rule.role)
				break
			}
		}
		if max > 0 && len(roles) >= max {
			break
		}
	}

	if len(roles) == 0 {
		return []string{DefaultRole}
	}
	return roles
}
