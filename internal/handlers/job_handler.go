package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/pdf"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
)

// JobHandler serves the job queue and the per-job AI tools
type JobHandler struct {
	workspace *workspace.Service
	ai        interfaces.AIService
	pdf       interfaces.PDFService
	logger    arbor.ILogger
}

func NewJobHandler(ws *workspace.Service, ai interfaces.AIService, pdfService interfaces.PDFService, logger arbor.ILogger) *JobHandler {
	return &JobHandler{workspace: ws, ai: ai, pdf: pdfService, logger: logger}
}

// ListJobsHandler handles GET /api/jobs with an optional ?status= filter
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs := h.workspace.Jobs()

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseJobStatus(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered := make([]models.JobListing, 0, len(jobs))
		for _, j := range jobs {
			if j.Status == status {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// CreateJobHandler handles POST /api/jobs (manual entry)
func (h *JobHandler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	var job models.JobListing
	if err := DecodeJSON(r, &job); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.workspace.AddManualJob(r.Context(), job)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// GetJobHandler handles GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, err := h.workspace.Job(id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// DeleteJobHandler handles DELETE /api/jobs/{id}
func (h *JobHandler) DeleteJobHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.workspace.DeleteJob(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Job deleted")
}

type moveRequest struct {
	Status string `json:"status"`
}

// MoveJobHandler handles POST /api/jobs/{id}/move with {"status": "..."}
func (h *JobHandler) MoveJobHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req moveRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := models.ParseJobStatus(req.Status)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := h.workspace.MoveJob(r.Context(), id, status)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// CoverLetterPDFHandler handles GET /api/jobs/{id}/cover-letter.pdf
func (h *JobHandler) CoverLetterPDFHandler(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	job, err := h.workspace.Job(id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if strings.TrimSpace(job.GeneratedCoverLetter) == "" {
		WriteError(w, http.StatusNotFound, "No cover letter generated for this job")
		return
	}

	markdown := pdf.CoverLetterMarkdown(job, h.workspace.Profile())
	data, err := h.pdf.ConvertMarkdownToPDF(markdown, "Cover letter: "+job.Title)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", id).Msg("Cover letter PDF failed")
		WriteError(w, http.StatusInternalServerError, "Failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="cover-letter-`+id+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// InterviewHandler handles POST /api/jobs/{id}/interview and stores the questions on the job
func (h *JobHandler) InterviewHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, ok := h.jobForTool(w, r, id)
	if !ok {
		return
	}
	questions, err := h.ai.GenerateInterviewQuestions(r.Context(), job, h.workspace.Profile())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	updated, err := h.workspace.SetInterviewPrep(r.Context(), id, questions)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

// ResumeAnalysisHandler handles POST /api/jobs/{id}/resume-analysis
func (h *JobHandler) ResumeAnalysisHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, ok := h.jobForTool(w, r, id)
	if !ok {
		return
	}
	analysis, err := h.ai.AnalyzeResumeForJob(r.Context(), job, h.workspace.Profile())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, analysis)
}

// NetworkingHandler handles POST /api/jobs/{id}/networking?kind=linkedin|email|referral
func (h *JobHandler) NetworkingHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, ok := h.jobForTool(w, r, id)
	if !ok {
		return
	}
	kind := models.ParseNetworkingKind(r.URL.Query().Get("kind"))
	msg, err := h.ai.GenerateNetworkingMessage(r.Context(), job, h.workspace.Profile(), kind)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"kind":    kind,
		"subject": msg.Subject,
		"message": msg.Message,
	})
}

// SkillGapHandler handles POST /api/jobs/{id}/skill-gap
func (h *JobHandler) SkillGapHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, ok := h.jobForTool(w, r, id)
	if !ok {
		return
	}
	gap, err := h.ai.AnalyzeSkillGap(r.Context(), job, h.workspace.Profile())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, gap)
}

func (h *JobHandler) jobForTool(w http.ResponseWriter, r *http.Request, id string) (models.JobListing, bool) {
	if !RequireMethod(w, r, http.MethodPost) {
		return models.JobListing{}, false
	}
	job, err := h.workspace.Job(id)
	if err != nil {
		WriteServiceError(w, err)
		return models.JobListing{}, false
	}
	return job, true
}

// StatsHandler handles GET /api/stats
func (h *JobHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.workspace.Stats())
}
