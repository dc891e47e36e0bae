package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/scheduler"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
)

// TriggerImport tags jobs_discovered events raised by URL import
const TriggerImport = "import"

// DiscoveryHandler runs discovery and URL import
type DiscoveryHandler struct {
	runner    DiscoveryRunner
	importer  JobImporter
	workspace *workspace.Service
	events    interfaces.EventService
	logger    arbor.ILogger
}

func NewDiscoveryHandler(runner DiscoveryRunner, importer JobImporter, ws *workspace.Service, events interfaces.EventService, logger arbor.ILogger) *DiscoveryHandler {
	return &DiscoveryHandler{runner: runner, importer: importer, workspace: ws, events: events, logger: logger}
}

// DiscoverHandler handles POST /api/discover
func (h *DiscoveryHandler) DiscoverHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	result, jobs, err := h.runner.Run(r.Context(), scheduler.TriggerManual)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"found": result.Found,
		"added": result.Added,
		"jobs":  jobs,
	})
}

type importRequest struct {
	URL string `json:"url"`
}

// ImportHandler handles POST /api/import with {"url": "..."}
func (h *DiscoveryHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req importRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.importer.Import(r.Context(), req.URL)
	if err != nil {
		h.logger.Warn().Err(err).Str("url", req.URL).Msg("Job import failed")
		WriteServiceError(w, err)
		return
	}

	added, err := h.workspace.AddJobs(r.Context(), []models.JobListing{*job})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if len(added) == 0 {
		WriteError(w, http.StatusConflict, "Job with this URL already exists")
		return
	}

	h.workspace.AppendLog(r.Context(), "Imported "+added[0].Title+" at "+added[0].Company, models.LogTypeSuccess)
	if h.events != nil {
		h.events.Publish(r.Context(), interfaces.Event{
			Type:    interfaces.EventJobsDiscovered,
			Payload: interfaces.DiscoveryResult{Found: 1, Added: 1, Trigger: TriggerImport},
		})
	}
	WriteJSON(w, http.StatusCreated, added[0])
}
