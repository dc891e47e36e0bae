package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/common"
)

type APIHandler struct {
	logger arbor.ILogger
	online func() bool
}

// NewAPIHandler creates the health/version handler. online reports whether a model provider is configured.
func NewAPIHandler(logger arbor.ILogger, online func() bool) *APIHandler {
	return &APIHandler{
		logger: logger,
		online: online,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	mode := "offline"
	if h.online != nil && h.online() {
		mode = "online"
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"ai":     mode,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
