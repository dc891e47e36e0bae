package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
)

// maxResumeBytes bounds uploaded resumes
const maxResumeBytes = 10 << 20

// ProfileHandler serves the user profile and resume-driven helpers
type ProfileHandler struct {
	workspace *workspace.Service
	ai        interfaces.AIService
	logger    arbor.ILogger
}

func NewProfileHandler(ws *workspace.Service, ai interfaces.AIService, logger arbor.ILogger) *ProfileHandler {
	return &ProfileHandler{workspace: ws, ai: ai, logger: logger}
}

// ProfileHandler handles GET and PUT /api/profile. PUT accepts JSON, or YAML
// when the Content-Type says so.
func (h *ProfileHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, h.workspace.Profile())
	case http.MethodPut:
		h.updateProfile(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ProfileHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.Contains(mediaType, "yaml") {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Failed to read body")
			return
		}
		profile, err := h.workspace.ImportProfileYAML(r.Context(), data)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, profile)
		return
	}

	var profile models.UserProfile
	if err := DecodeJSON(r, &profile); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.workspace.UpdateProfile(r.Context(), profile)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}

// UploadResumeHandler handles POST /api/profile/resume: a multipart "file" field or a raw
// body with its Content-Type. The parsed fields are merged into the profile.
func (h *ProfileHandler) UploadResumeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	data, mimeType, err := readResume(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	parsed, err := h.ai.ParseResume(r.Context(), data, mimeType)
	if err != nil {
		h.logger.Warn().Err(err).Str("mime_type", mimeType).Msg("Resume parsing failed")
		WriteServiceError(w, err)
		return
	}

	profile := h.workspace.Profile()
	parsed.MergeInto(&profile)
	saved, err := h.workspace.UpdateProfile(r.Context(), profile)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"parsed":  parsed,
		"profile": saved,
	})
}

func readResume(r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxResumeBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxResumeBytes); err != nil {
			return nil, "", fmt.Errorf("invalid multipart form: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read upload: %w", err)
		}
		fileType := header.Header.Get("Content-Type")
		if fileType == "" || fileType == "application/octet-stream" {
			fileType = http.DetectContentType(data)
		}
		return data, fileType, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty resume")
	}
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return data, mediaType, nil
}

// SuggestRolesHandler handles POST /api/profile/roles
func (h *ProfileHandler) SuggestRolesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	roles, err := h.ai.SuggestRoles(r.Context(), h.workspace.Profile())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}
