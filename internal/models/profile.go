package models

import (
	"strings"
	"time"
)

// ExperienceLevel is the candidate's seniority used for discovery filtering
type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "Entry Level"
	ExperienceMid       ExperienceLevel = "Mid Level"
	ExperienceSenior    ExperienceLevel = "Senior Level"
	ExperienceLead      ExperienceLevel = "Lead / Principal"
	ExperienceExecutive ExperienceLevel = "Executive"
)

// DefaultMatchThreshold is the minimum match score for the AutoPilot to apply
const DefaultMatchThreshold = 60

// ExperienceLevels lists the supported levels in ascending seniority
func ExperienceLevels() []ExperienceLevel {
	return []ExperienceLevel{ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceLead, ExperienceExecutive}
}

// ParseExperienceLevel matches a level loosely ("entry", "Senior Level", "lead") and
// falls back to Mid Level for unrecognised input.
func ParseExperienceLevel(s string) ExperienceLevel {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return ExperienceMid
	case strings.Contains(v, "entry") || strings.Contains(v, "junior") || strings.Contains(v, "graduate"):
		return ExperienceEntry
	case strings.Contains(v, "exec") || strings.Contains(v, "director") || strings.Contains(v, "vp"):
		return ExperienceExecutive
	case strings.Contains(v, "lead") || strings.Contains(v, "principal") || strings.Contains(v, "staff"):
		return ExperienceLead
	case strings.Contains(v, "senior"):
		return ExperienceSenior
	default:
		return ExperienceMid
	}
}

// UserProfile describes the candidate. Owned by the user; read-only to the AutoPilot.
type UserProfile struct {
	Name               string          `json:"name" yaml:"name" validate:"max=200"`
	Email              string          `json:"email" yaml:"email" validate:"omitempty,email"`
	Phone              string          `json:"phone" yaml:"phone" validate:"max=50"`
	Location           string          `json:"location" yaml:"location"`
	LinkedIn           string          `json:"linkedin" yaml:"linkedin" validate:"omitempty,url"`
	Portfolio          string          `json:"portfolio" yaml:"portfolio" validate:"omitempty,url"`
	TargetRoles        []string        `json:"targetRoles" yaml:"target_roles" validate:"max=20,dive,required"`
	PreferredLocations []string        `json:"preferredLocations" yaml:"preferred_locations"`
	Regions            []string        `json:"regions" yaml:"regions"`
	ExperienceLevel    ExperienceLevel `json:"experienceLevel" yaml:"experience_level" validate:"required,oneof='Entry Level' 'Mid Level' 'Senior Level' 'Lead / Principal' 'Executive'"`
	ResumeText         string          `json:"resumeText" yaml:"resume_text"`
	Skills             []string        `json:"skills" yaml:"skills"`
	MinMatchScore      *int            `json:"minMatchScore" yaml:"min_match_score" validate:"omitempty,min=0,max=100"`
	RemoteOnly         bool            `json:"remoteOnly" yaml:"remote_only"`
	UpdatedAt          time.Time       `json:"updatedAt" yaml:"-"`
}

// DefaultProfile returns an empty profile with defaults applied
func DefaultProfile() UserProfile {
	return UserProfile{
		TargetRoles:        []string{},
		PreferredLocations: []string{"Remote"},
		Regions:            []string{},
		ExperienceLevel:    ExperienceMid,
		Skills:             []string{},
		RemoteOnly:         true,
	}
}

// ApplyDefaults fills fields left empty by older persisted state or partial input
func (p *UserProfile) ApplyDefaults() {
	d := DefaultProfile()
	if p.TargetRoles == nil {
		p.TargetRoles = d.TargetRoles
	}
	if p.PreferredLocations == nil {
		p.PreferredLocations = d.PreferredLocations
	}
	if p.Regions == nil {
		p.Regions = d.Regions
	}
	if p.Skills == nil {
		p.Skills = d.Skills
	}
	if p.ExperienceLevel == "" {
		p.ExperienceLevel = d.ExperienceLevel
	} else {
		p.ExperienceLevel = ParseExperienceLevel(string(p.ExperienceLevel))
	}
}

// Threshold returns the score at or above which the AutoPilot applies.
// A profile value of 0 is honoured and applies to every scored job; an unset value
// falls back to fallback, then to DefaultMatchThreshold.
func (p *UserProfile) Threshold(fallback int) int {
	if p.MinMatchScore != nil {
		return *p.MinMatchScore
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultMatchThreshold
}

// Clone returns a deep copy
func (p UserProfile) Clone() UserProfile {
	p.TargetRoles = append([]string(nil), p.TargetRoles...)
	p.PreferredLocations = append([]string(nil), p.PreferredLocations...)
	p.Regions = append([]string(nil), p.Regions...)
	p.Skills = append([]string(nil), p.Skills...)
	if p.MinMatchScore != nil {
		score := *p.MinMatchScore
		p.MinMatchScore = &score
	}
	return p
}
