package offline

import (
	"math"
	"strings"
)

// Scoring constants for the keyword-overlap fallback
const (
	ScoreKeywordCount = 20
	ScoreFloor        = 30
	ScoreCeiling      = 98
	ScoreSpan         = 70
	ScoreMatchBias    = 10
)

// Overlap splits the top job-description keywords into those present in and missing from the resume
func Overlap(resumeText, description string) (matched, missing []string) {
	resume := KeywordSet(resumeText)
	for _, kw := range ExtractKeywords(description, ScoreKeywordCount) {
		if _, ok := resume[kw]; ok {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	return matched, missing
}

// MatchScore estimates fit from the fraction of the top job keywords found in the resume:
// clamp(round(fraction*70) + 30 + bias, 30, 98), with bias 10 when anything matches.
// Identical inputs always give the same score.
func MatchScore(resumeText, description string) int {
	matched, missing := Overlap(resumeText, description)
	total := len(matched) + len(missing)
	if total == 0 {
		return ScoreFloor
	}

	fraction := float64(len(matched)) / float64(total)
	score := int(math.Round(fraction*ScoreSpan)) + ScoreFloor
	if len(matched) > 0 {
		score += ScoreMatchBias
	}
	return clamp(score, ScoreFloor, ScoreCeiling)
}

// ProfileText joins the profile fields that describe the candidate's experience
func ProfileText(resumeText string, skills []string) string {
	return strings.TrimSpace(resumeText + "\n" + strings.Join(skills, " "))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
