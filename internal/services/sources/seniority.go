package sources

import (
	"strings"

	"github.com/ternarybob/jobpilot/internal/models"
)

var juniorTitles = []string{"junior", "jr.", "intern", "entry level", "graduate", "trainee"}

// seniorityExclusions lists title fragments that disqualify a listing for each level
var seniorityExclusions = map[models.ExperienceLevel][]string{
	models.ExperienceEntry:     {"senior", "sr.", "lead", "principal", "staff", "director", "head of", "manager", "vp", "chief", "architect"},
	models.ExperienceMid:       {"principal", "director", "head of", "vp", "chief", "intern"},
	models.ExperienceSenior:    juniorTitles,
	models.ExperienceLead:      append(append([]string(nil), juniorTitles...), "associate"),
	models.ExperienceExecutive: append(append([]string(nil), juniorTitles...), "associate", "mid"),
}

// Excluded reports whether the title carries a fragment blacklisted for the level
func Excluded(title string, level models.ExperienceLevel) bool {
	t := strings.ToLower(title)
	for _, term := range seniorityExclusions[level] {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// FilterBySeniority drops listings whose title does not fit the experience level
func FilterBySeniority(jobs []models.JobListing, level models.ExperienceLevel) []models.JobListing {
	kept := make([]models.JobListing, 0, len(jobs))
	for _, j := range jobs {
		if !Excluded(j.Title, level) {
			kept = append(kept, j)
		}
	}
	return kept
}
