// -----------------------------------------------------------------------
// AI result schemas - shapes returned by the AI service and its fallbacks
// -----------------------------------------------------------------------

package models

// ParsedResume is the structured form of an uploaded resume
type ParsedResume struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Location        string   `json:"location"`
	Summary         string   `json:"summary"`
	Skills          []string `json:"skills"`
	ExperienceLevel string   `json:"experienceLevel"`
	ResumeText      string   `json:"resumeText"`
}

// MergeInto copies non-empty parsed fields onto the profile
func (r *ParsedResume) MergeInto(p *UserProfile) {
	if r.Name != "" {
		p.Name = r.Name
	}
	if r.Email != "" {
		p.Email = r.Email
	}
	if r.Phone != "" {
		p.Phone = r.Phone
	}
	if r.Location != "" {
		p.Location = r.Location
	}
	if len(r.Skills) > 0 {
		p.Skills = append([]string(nil), r.Skills...)
	}
	if r.ExperienceLevel != "" {
		p.ExperienceLevel = ParseExperienceLevel(r.ExperienceLevel)
	}
	if r.ResumeText != "" {
		p.ResumeText = r.ResumeText
	}
}

// MatchResult is the outcome of scoring a job against the profile
type MatchResult struct {
	MatchScore  int    `json:"matchScore" validate:"gte=0,lte=100"`
	CoverLetter string `json:"coverLetter"`
	Notes       string `json:"notes"`
}

// InterviewQuestion is one likely interview question with guidance
type InterviewQuestion struct {
	Question        string   `json:"question" validate:"required"`
	SuggestedAnswer string   `json:"suggestedAnswer"`
	KeyPoints       []string `json:"keyPoints"`
}

// LearningStep is one item of a skill-gap learning path
type LearningStep struct {
	Skill      string `json:"skill"`
	Resource   string `json:"resource"`
	ActionItem string `json:"actionItem"`
}

// SkillGapResult lists skills the job asks for that the profile lacks
type SkillGapResult struct {
	MissingSkills []string       `json:"missingSkills"`
	LearningPath  []LearningStep `json:"learningPath"`
	ProjectIdea   string         `json:"projectIdea"`
}

// ResumeAnalysis is a resume optimisation report for one job
type ResumeAnalysis struct {
	Score                 int      `json:"score" validate:"gte=0,lte=100"`
	MissingKeywords       []string `json:"missingKeywords"`
	SuggestedImprovements []string `json:"suggestedImprovements"`
	OptimizedSummary      string   `json:"optimizedSummary"`
}

// NetworkingKind selects the tone and channel of a networking message
type NetworkingKind string

const (
	NetworkingLinkedIn NetworkingKind = "linkedin"
	NetworkingEmail    NetworkingKind = "email"
	NetworkingReferral NetworkingKind = "referral"
)

// ParseNetworkingKind defaults to linkedin for empty or unknown input
func ParseNetworkingKind(s string) NetworkingKind {
	switch NetworkingKind(s) {
	case NetworkingEmail:
		return NetworkingEmail
	case NetworkingReferral:
		return NetworkingReferral
	default:
		return NetworkingLinkedIn
	}
}

// NetworkingMessage is a drafted outreach message. Subject is empty for linkedin.
type NetworkingMessage struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}
