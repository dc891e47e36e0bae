package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/handlers"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/services/ai"
	"github.com/ternarybob/jobpilot/internal/services/autopilot"
	"github.com/ternarybob/jobpilot/internal/services/events"
	"github.com/ternarybob/jobpilot/internal/services/importer"
	"github.com/ternarybob/jobpilot/internal/services/llm"
	"github.com/ternarybob/jobpilot/internal/services/pdf"
	"github.com/ternarybob/jobpilot/internal/services/scheduler"
	"github.com/ternarybob/jobpilot/internal/services/sources"
	"github.com/ternarybob/jobpilot/internal/services/workspace"
	"github.com/ternarybob/jobpilot/internal/storage"
)

// shutdownGrace bounds how long Close waits for the AutoPilot to stop
const shutdownGrace = 10 * time.Second

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService *scheduler.Service

	// Domain services
	LLMProvider     interfaces.LLMProvider
	AIService       *ai.Service
	PDFService      *pdf.Service
	Workspace       *workspace.Service
	Discoverer      *sources.Discoverer
	Importer        *importer.Service
	Autopilot       *autopilot.Processor
	DiscoveryRunner *scheduler.DiscoveryRunner

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	WSHandler        *handlers.WebSocketHandler
	ProfileHandler   *handlers.ProfileHandler
	JobHandler       *handlers.JobHandler
	AutopilotHandler *handlers.AutopilotHandler
	DiscoveryHandler *handlers.DiscoveryHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.Config.Validate(context.Background(), app.StorageManager.KeyValueStorage()); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app.EventService = events.NewService(app.Logger)

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	if err := app.startScheduler(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	app.Logger.Info().
		Bool("ai_online", app.AIService.Online()).
		Int("jobs", len(app.Workspace.Jobs())).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens badger and loads API keys from the keys directory
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	// Keys must be in the KV store before the provider resolves its API key.
	if err := a.StorageManager.LoadKeys(context.Background(), a.Config.Keys.Dir); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load keys from files")
	}
	return nil
}

func (a *App) initServices() error {
	ctx := context.Background()

	if err := events.SubscribeLoggerToAllEvents(a.EventService, a.Logger); err != nil {
		return fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	provider, err := llm.NewProvider(ctx, a.Config, a.StorageManager.KeyValueStorage(), a.Logger)
	switch {
	case err == nil:
		a.LLMProvider = provider
	case errors.Is(err, llm.ErrMissingAPIKey) && a.Config.LLM.Mode != common.LLMModeStrict:
		a.Logger.Warn().Err(err).Msg("No API key configured, running with offline heuristics")
	default:
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	a.PDFService = pdf.NewService(a.Logger)
	a.AIService = ai.NewService(a.LLMProvider, a.Config, pdf.NewExtractor(a.Logger), a.Logger)

	// Assigned only once loaded so Close never overwrites stored state with an empty workspace.
	ws := workspace.NewService(a.StorageManager.StateStorage(), a.EventService, a.Logger)
	if err := ws.Load(ctx); err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}
	a.Workspace = ws

	a.Discoverer = sources.NewDiscoverer(
		sources.NewSources(&a.Config.Sources, a.Logger),
		a.AIService,
		&a.Config.Sources,
		a.Logger,
	)
	a.Importer = importer.NewService(a.AIService, &a.Config.Sources, a.Logger)

	a.Autopilot = autopilot.NewProcessor(
		a.Workspace,
		a.AIService,
		a.EventService,
		autopilot.ConfigFrom(&a.Config.Autopilot),
		a.Logger,
	)

	a.DiscoveryRunner = scheduler.NewDiscoveryRunner(
		a.Discoverer,
		a.Workspace,
		a.EventService,
		a.Autopilot,
		a.Config.Discovery.AutoStart,
		a.Logger,
	)
	a.SchedulerService = scheduler.NewService(a.StorageManager.KeyValueStorage(), a.Logger)

	return nil
}

func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler(a.Logger, a.AIService.Online)

	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger, &a.Config.WebSocket)
	a.WSHandler.SetStatusProvider(func() interface{} { return a.Autopilot.Status() })
	if err := a.WSHandler.SubscribeToEvents(); err != nil {
		return fmt.Errorf("failed to subscribe websocket to events: %w", err)
	}

	a.ProfileHandler = handlers.NewProfileHandler(a.Workspace, a.AIService, a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.Workspace, a.AIService, a.PDFService, a.Logger)
	a.AutopilotHandler = handlers.NewAutopilotHandler(a.Autopilot, a.Workspace, a.Logger)
	a.DiscoveryHandler = handlers.NewDiscoveryHandler(a.DiscoveryRunner, a.Importer, a.Workspace, a.EventService, a.Logger)
	return nil
}

func (a *App) startScheduler() error {
	if !a.Config.Discovery.Enabled {
		a.Logger.Debug().Msg("Scheduled discovery disabled")
		return nil
	}
	if err := scheduler.RegisterDiscovery(a.SchedulerService, a.DiscoveryRunner, a.Config.Discovery.Schedule); err != nil {
		return err
	}
	return a.SchedulerService.Start()
}

// Close stops background work, flushes state and releases resources
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.Autopilot != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		if err := a.Autopilot.Shutdown(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("AutoPilot did not stop cleanly")
		}
		cancel()
	}

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	if a.Workspace != nil {
		if err := a.Workspace.Save(context.Background()); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to save workspace on shutdown")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.LLMProvider != nil {
		if err := a.LLMProvider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
