package models

import "time"

// CurrentStateVersion is the schema version written with every persisted state
const CurrentStateVersion = 1

// PersistedState is the single blob holding the profile, job list and recent logs
type PersistedState struct {
	Version int             `json:"version"`
	Profile UserProfile     `json:"profile"`
	Jobs    []JobListing    `json:"jobs"`
	Logs    []AutomationLog `json:"logs"`
	SavedAt time.Time       `json:"savedAt"`
}

// StaleAnalysisNote is recorded on jobs found analyzing at load time
const StaleAnalysisNote = "Interrupted before analysis completed"

// Migrate upgrades an older or zero-version state in place. Profile defaults are
// merged for missing fields and nil slices are replaced with empty ones.
// Returns the number of stale analyzing jobs moved to failed.
func (s *PersistedState) Migrate(now time.Time) int {
	s.Profile.ApplyDefaults()
	if s.Jobs == nil {
		s.Jobs = []JobListing{}
	}
	if s.Logs == nil {
		s.Logs = []AutomationLog{}
	}

	recovered := 0
	for i := range s.Jobs {
		if s.Jobs[i].Status == "" {
			s.Jobs[i].Status = JobStatusNew
		}
		if s.Jobs[i].Status == JobStatusAnalyzing {
			s.Jobs[i].Status = JobStatusFailed
			s.Jobs[i].ApplicationNotes = StaleAnalysisNote
			s.Jobs[i].UpdatedAt = now
			recovered++
		}
	}

	s.Version = CurrentStateVersion
	return recovered
}
