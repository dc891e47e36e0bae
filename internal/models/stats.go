package models

import "math"

// Stats is derived from the job list on every read and never stored
type Stats struct {
	TotalFound   int     `json:"totalFound"`
	Pending      int     `json:"pending"`
	Analyzing    int     `json:"analyzing"`
	Applied      int     `json:"applied"`
	Skipped      int     `json:"skipped"`
	Failed       int     `json:"failed"`
	Interviewing int     `json:"interviewing"`
	Offers       int     `json:"offers"`
	Rejected     int     `json:"rejected"`
	AverageScore float64 `json:"averageScore"`
}

// ComputeStats tallies jobs by status. Placeholder listings are not counted.
// AverageScore covers scored jobs only, rounded to one decimal place.
func ComputeStats(jobs []JobListing) Stats {
	var s Stats
	scored, total := 0, 0
	for i := range jobs {
		if jobs[i].IsPlaceholder() {
			continue
		}
		s.TotalFound++
		switch jobs[i].Status {
		case JobStatusNew:
			s.Pending++
		case JobStatusAnalyzing:
			s.Analyzing++
		case JobStatusApplied:
			s.Applied++
		case JobStatusSkipped:
			s.Skipped++
		case JobStatusFailed:
			s.Failed++
		case JobStatusInterviewing:
			s.Interviewing++
		case JobStatusOffer:
			s.Offers++
		case JobStatusRejected:
			s.Rejected++
		}
		if jobs[i].MatchScore != nil {
			scored++
			total += *jobs[i].MatchScore
		}
	}
	if scored > 0 {
		s.AverageScore = math.Round(float64(total)/float64(scored)*10) / 10
	}
	return s
}
