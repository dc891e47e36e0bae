package server

import (
	"net/http"

	"github.com/ternarybob/jobpilot/internal/handlers"
)

const jobsPrefix = "/api/jobs/"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - System
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// API routes - Profile
	mux.HandleFunc("/api/profile", s.app.ProfileHandler.ProfileHandler)             // GET, PUT
	mux.HandleFunc("/api/profile/resume", s.app.ProfileHandler.UploadResumeHandler) // POST
	mux.HandleFunc("/api/profile/roles", s.app.ProfileHandler.SuggestRolesHandler)  // POST

	// API routes - Jobs
	mux.HandleFunc("/api/jobs", s.handleJobsRoute) // GET (list), POST (manual add)
	mux.HandleFunc(jobsPrefix, s.handleJobRoutes)  // /{id} and /{id}/{action}
	mux.HandleFunc("/api/stats", s.app.JobHandler.StatsHandler)

	// API routes - Discovery
	mux.HandleFunc("/api/discover", s.app.DiscoveryHandler.DiscoverHandler)
	mux.HandleFunc("/api/import", s.app.DiscoveryHandler.ImportHandler)

	// API routes - AutoPilot
	mux.HandleFunc("/api/autopilot/start", s.app.AutopilotHandler.StartHandler)
	mux.HandleFunc("/api/autopilot/pause", s.app.AutopilotHandler.PauseHandler)
	mux.HandleFunc("/api/autopilot/status", s.app.AutopilotHandler.StatusHandler)
	mux.HandleFunc("/api/logs", s.app.AutopilotHandler.LogsHandler)

	// 404 for anything else
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

func (s *Server) handleJobsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.JobHandler.ListJobsHandler, s.app.JobHandler.CreateJobHandler)
}

// handleJobRoutes dispatches /api/jobs/{id} and /api/jobs/{id}/{action}
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	id, action := handlers.SplitResourcePath(r.URL.Path, jobsPrefix)
	if id == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	jobs := s.app.JobHandler
	withID := func(fn func(http.ResponseWriter, *http.Request, string)) RouteHandler {
		return func(w http.ResponseWriter, r *http.Request) { fn(w, r, id) }
	}

	switch action {
	case "":
		RouteResourceItem(w, r, withID(jobs.GetJobHandler), nil, withID(jobs.DeleteJobHandler))
	case "move":
		jobs.MoveJobHandler(w, r, id)
	case "cover-letter.pdf":
		jobs.CoverLetterPDFHandler(w, r, id)
	case "interview":
		jobs.InterviewHandler(w, r, id)
	case "resume-analysis":
		jobs.ResumeAnalysisHandler(w, r, id)
	case "networking":
		jobs.NetworkingHandler(w, r, id)
	case "skill-gap":
		jobs.SkillGapHandler(w, r, id)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
