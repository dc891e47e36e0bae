package ai

// JSON schemas sent to providers for structured output

func stringArray() map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}
}

func str(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func score(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc, "minimum": 0.0, "maximum": 100.0}
}

var parsedResumeSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"name":            str("Candidate full name"),
		"email":           str("Email address"),
		"phone":           str("Phone number"),
		"location":        str("City and country"),
		"summary":         str("Two sentence professional summary"),
		"skills":          stringArray(),
		"experienceLevel": map[string]interface{}{"type": "string", "enum": []string{"Entry Level", "Mid Level", "Senior Level", "Lead / Principal", "Executive"}},
		"resumeText":      str("Full plain text of the resume"),
	},
	"required": []string{"name", "skills", "experienceLevel", "resumeText"},
}

var rolesSchema = stringArray()

var jobSearchSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":       str("Job title"),
			"company":     str("Hiring company"),
			"location":    str("Location or Remote"),
			"url":         str("Link to the posting"),
			"description": str("Short description"),
			"salary":      str("Salary range if known"),
		},
		"required": []string{"title", "company", "url"},
	},
}

var matchSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"matchScore":  score("Fit between candidate and job, 0-100"),
		"coverLetter": str("Tailored cover letter"),
		"notes":       str("Short reasoning for the score"),
	},
	"required": []string{"matchScore", "coverLetter", "notes"},
}

var interviewSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"question":        str("Likely interview question"),
			"suggestedAnswer": str("Answer outline using the candidate's background"),
			"keyPoints":       stringArray(),
		},
		"required": []string{"question", "suggestedAnswer", "keyPoints"},
	},
}

var resumeAnalysisSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"score":                 score("How well the resume matches the job, 0-100"),
		"missingKeywords":       stringArray(),
		"suggestedImprovements": stringArray(),
		"optimizedSummary":      str("Rewritten professional summary for this job"),
	},
	"required": []string{"score", "missingKeywords", "suggestedImprovements", "optimizedSummary"},
}

var networkingSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"subject": str("Subject line, empty for LinkedIn"),
		"message": str("Message body"),
	},
	"required": []string{"subject", "message"},
}

var skillGapSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"missingSkills": stringArray(),
		"learningPath": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"skill":      str("Skill to learn"),
					"resource":   str("Course, book or documentation"),
					"actionItem": str("Concrete next step"),
				},
				"required": []string{"skill", "resource", "actionItem"},
			},
		},
		"projectIdea": str("Portfolio project demonstrating the missing skills"),
	},
	"required": []string{"missingSkills", "learningPath", "projectIdea"},
}

var extractJobSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":       str("Job title"),
		"company":     str("Hiring company"),
		"location":    str("Location or Remote"),
		"description": str("Job description as plain text"),
		"salary":      str("Salary range if stated"),
	},
	"required": []string{"title", "company", "description"},
}
