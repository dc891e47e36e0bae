package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
)

// defaultLogLimit is the number of log entries returned without ?limit=
const defaultLogLimit = models.MaxPersistedLogs

// AutopilotHandler controls the queue processor
type AutopilotHandler struct {
	autopilot AutopilotController
	workspace *workspace.Service
	logger    arbor.ILogger
}

func NewAutopilotHandler(ap AutopilotController, ws *workspace.Service, logger arbor.ILogger) *AutopilotHandler {
	return &AutopilotHandler{autopilot: ap, workspace: ws, logger: logger}
}

// StartHandler handles POST /api/autopilot/start
func (h *AutopilotHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.autopilot.Start(); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, h.autopilot.Status())
}

// PauseHandler handles POST /api/autopilot/pause
func (h *AutopilotHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.autopilot.Pause()
	WriteJSON(w, http.StatusOK, h.autopilot.Status())
}

// StatusHandler handles GET /api/autopilot/status
func (h *AutopilotHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.autopilot.Status())
}

// LogsHandler handles GET /api/logs?limit=
func (h *AutopilotHandler) LogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	logs := h.workspace.Logs(GetLimitParam(r, defaultLogLimit))
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": len(logs),
	})
}
