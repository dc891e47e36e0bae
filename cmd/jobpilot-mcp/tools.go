package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createListJobsTool returns the list_jobs tool definition
func createListJobsTool() mcp.Tool {
	return mcp.NewTool("list_jobs",
		mcp.WithDescription("List job listings in the JobPilot queue, newest first"),
		mcp.WithString("status",
			mcp.Description("Filter: new, analyzing, applied, skipped, failed, interviewing, offer, rejected"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 20, max: 200)"),
		),
	)
}

// createGetJobTool returns the get_job tool definition
func createGetJobTool() mcp.Tool {
	return mcp.NewTool("get_job",
		mcp.WithDescription("Retrieve a single job listing with its match score and cover letter"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID (format: job_{uuid})"),
		),
	)
}

func createGetStatsTool() mcp.Tool {
	return mcp.NewTool("get_stats",
		mcp.WithDescription("Summarise the queue: counts per status and average match score"),
	)
}

func createRecentLogsTool() mcp.Tool {
	return mcp.NewTool("recent_logs",
		mcp.WithDescription("Show the most recent AutoPilot log entries"),
		mcp.WithNumber("limit",
			mcp.Description("Max entries (default: 20)"),
		),
	)
}
