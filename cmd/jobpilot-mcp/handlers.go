package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// stateReader loads the persisted workspace read-only. Stale analyzing jobs are
// migrated in memory only; nothing is written back.
type stateReader struct {
	store interfaces.StateStorage
}

func newStateReader(store interfaces.StateStorage) *stateReader {
	return &stateReader{store: store}
}

func (r *stateReader) load(ctx context.Context) (*models.PersistedState, error) {
	state, err := r.store.LoadState(ctx)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		state = &models.PersistedState{Profile: models.DefaultProfile()}
	} else if err != nil {
		return nil, err
	}
	state.Migrate(time.Now())
	return state, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

// handleListJobs implements the list_jobs tool
func handleListJobs(reader *stateReader, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", defaultListLimit)
		if limit <= 0 {
			limit = defaultListLimit
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}

		var filter models.JobStatus
		if raw := request.GetString("status", ""); raw != "" {
			st, err := models.ParseJobStatus(raw)
			if err != nil {
				return textResult(fmt.Sprintf("Error: %v", err)), nil
			}
			filter = st
		}

		state, err := reader.load(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load state")
			return textResult(fmt.Sprintf("Storage error: %v", err)), nil
		}

		jobs := make([]models.JobListing, 0, len(state.Jobs))
		for _, job := range state.Jobs {
			if filter == "" || job.Status == filter {
				jobs = append(jobs, job)
			}
		}
		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		})
		total := len(jobs)
		if len(jobs) > limit {
			jobs = jobs[:limit]
		}

		return textResult(formatJobList(jobs, total, filter)), nil
	}
}

// handleGetJob implements the get_job tool
func handleGetJob(reader *stateReader, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil || jobID == "" {
			return textResult("Error: job_id parameter is required"), nil
		}

		state, err := reader.load(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load state")
			return textResult(fmt.Sprintf("Storage error: %v", err)), nil
		}

		for i := range state.Jobs {
			if state.Jobs[i].ID == jobID {
				return textResult(formatJob(&state.Jobs[i])), nil
			}
		}
		return textResult(fmt.Sprintf("Job not found: %s", jobID)), nil
	}
}

// handleGetStats implements the get_stats tool
func handleGetStats(reader *stateReader, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		state, err := reader.load(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load state")
			return textResult(fmt.Sprintf("Storage error: %v", err)), nil
		}
		return textResult(formatStats(models.ComputeStats(state.Jobs))), nil
	}
}

// handleRecentLogs implements the recent_logs tool
func handleRecentLogs(reader *stateReader, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", defaultListLimit)
		if limit <= 0 {
			limit = defaultListLimit
		}

		state, err := reader.load(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load state")
			return textResult(fmt.Sprintf("Storage error: %v", err)), nil
		}
		return textResult(formatLogs(models.TrimLogs(state.Logs, limit))), nil
	}
}
