package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/storage"
)

// The MCP server opens the same badger directory as the HTTP server, so it is run
// while the HTTP server is stopped (badger holds an exclusive directory lock).
func main() {
	configPath := os.Getenv("JOBPILOT_CONFIG")
	if configPath == "" {
		configPath = "jobpilot.toml"
	}

	var paths []string
	if _, err := os.Stat(configPath); err == nil {
		paths = append(paths, configPath)
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
		os.Exit(1)
	}
	defer storageManager.Close()

	reader := newStateReader(storageManager.StateStorage())

	mcpServer := server.NewMCPServer(
		"jobpilot",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createListJobsTool(), handleListJobs(reader, logger))
	mcpServer.AddTool(createGetJobTool(), handleGetJob(reader, logger))
	mcpServer.AddTool(createGetStatsTool(), handleGetStats(reader, logger))
	mcpServer.AddTool(createRecentLogsTool(), handleRecentLogs(reader, logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
