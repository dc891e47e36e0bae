package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []JobStatus{
	JobStatusNew, JobStatusAnalyzing, JobStatusApplied, JobStatusSkipped,
	JobStatusFailed, JobStatusInterviewing, JobStatusOffer, JobStatusRejected,
}

func TestParseJobStatus(t *testing.T) {
	for _, s := range allStatuses {
		got, err := ParseJobStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseJobStatus("  Applied ")
	require.NoError(t, err)
	assert.Equal(t, JobStatusApplied, got)

	_, err = ParseJobStatus("hired")
	assert.Error(t, err)
	_, err = ParseJobStatus("")
	assert.Error(t, err)
}

func TestCanTransitionAutomated(t *testing.T) {
	allowed := map[[2]JobStatus]bool{
		{JobStatusNew, JobStatusAnalyzing}:     true,
		{JobStatusAnalyzing, JobStatusApplied}: true,
		{JobStatusAnalyzing, JobStatusSkipped}: true,
		{JobStatusAnalyzing, JobStatusFailed}:  true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]JobStatus{from, to}]
			assert.Equal(t, want, CanTransitionAutomated(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionManual(t *testing.T) {
	tests := []struct {
		name     string
		from     JobStatus
		to       JobStatus
		expected bool
	}{
		{"apply new job manually", JobStatusNew, JobStatusApplied, true},
		{"apply skipped job", JobStatusSkipped, JobStatusApplied, true},
		{"apply failed job", JobStatusFailed, JobStatusApplied, true},
		{"requeue failed job", JobStatusFailed, JobStatusNew, true},
		{"applied to interviewing", JobStatusApplied, JobStatusInterviewing, true},
		{"applied to rejected", JobStatusApplied, JobStatusRejected, true},
		{"interviewing to offer", JobStatusInterviewing, JobStatusOffer, true},
		{"interviewing to rejected", JobStatusInterviewing, JobStatusRejected, true},
		{"offer to rejected", JobStatusOffer, JobStatusRejected, true},
		{"cannot enter analyzing", JobStatusNew, JobStatusAnalyzing, false},
		{"cannot leave analyzing", JobStatusAnalyzing, JobStatusApplied, false},
		{"cannot skip to offer", JobStatusApplied, JobStatusOffer, false},
		{"rejected is final", JobStatusRejected, JobStatusApplied, false},
		{"cannot requeue skipped", JobStatusSkipped, JobStatusNew, false},
		{"same status", JobStatusApplied, JobStatusApplied, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanTransitionManual(tt.from, tt.to))
		})
	}
}

func TestAnalyzingIsNeverManual(t *testing.T) {
	for _, s := range allStatuses {
		assert.False(t, CanTransitionManual(s, JobStatusAnalyzing), "%s -> analyzing", s)
		assert.False(t, CanTransitionManual(JobStatusAnalyzing, s), "analyzing -> %s", s)
	}
}

func TestIsTerminalForAutomation(t *testing.T) {
	assert.False(t, IsTerminalForAutomation(JobStatusNew))
	assert.False(t, IsTerminalForAutomation(JobStatusAnalyzing))
	for _, s := range allStatuses[2:] {
		assert.True(t, IsTerminalForAutomation(s), string(s))
	}
}

func TestDedupKey(t *testing.T) {
	a := JobListing{ID: "job_1", URL: "HTTPS://Example.com/jobs/42/"}
	b := JobListing{ID: "job_2", URL: "https://example.com/jobs/42#apply"}
	assert.Equal(t, a.DedupKey(), b.DedupKey())

	noURL := JobListing{ID: "job_3"}
	assert.Equal(t, "id:job_3", noURL.DedupKey())

	// Path case is significant
	c := JobListing{ID: "job_4", URL: "https://example.com/Jobs/42"}
	assert.NotEqual(t, a.DedupKey(), c.DedupKey())
}

func TestJobListingClone(t *testing.T) {
	orig := JobListing{
		ID:         "job_1",
		MatchScore: IntPtr(75),
		InterviewPrep: []InterviewQuestion{
			{Question: "Why?", KeyPoints: []string{"a"}},
		},
	}
	c := orig.Clone()
	*c.MatchScore = 10
	c.InterviewPrep[0].KeyPoints[0] = "b"

	assert.Equal(t, 75, orig.Score())
	assert.Equal(t, "a", orig.InterviewPrep[0].KeyPoints[0])

	unscored := JobListing{}
	assert.Equal(t, -1, unscored.Score())
}
