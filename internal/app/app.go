// -----------------------------------------------------------------------
// Last Modified: Wednesday, 22nd July 2026 7:55:18 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/handlers"
	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/internal/services/browser"
	"github.com/ternarybob/rednote/internal/services/cookies"
	"github.com/ternarybob/rednote/internal/services/events"
	"github.com/ternarybob/rednote/internal/services/extractor"
	"github.com/ternarybob/rednote/internal/services/llm"
	"github.com/ternarybob/rednote/internal/services/login"
	"github.com/ternarybob/rednote/internal/services/notes"
	"github.com/ternarybob/rednote/internal/services/pdf"
	"github.com/ternarybob/rednote/internal/services/scheduler"
	badgerstorage "github.com/ternarybob/rednote/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Browser pipeline
	BrowserService   interfaces.BrowserService
	ExtractorService interfaces.ExtractorService
	CookieService    interfaces.CookieStore
	PDFService       interfaces.PDFService

	// Note and login services
	NoteService    interfaces.NoteService
	LoginService   interfaces.LoginService
	SummaryService interfaces.SummaryService

	// HTTP handlers
	StatusHandler *handlers.StatusHandler
	NoteHandler   *handlers.NoteHandler
	LoginHandler  *handlers.LoginHandler
	WSHandler     *handlers.WebSocketHandler
	WSWriter      *handlers.WebSocketWriter
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize storage
	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Event service comes up before anything that publishes
	app.EventService = events.NewService(app.Logger)
	if err := events.SubscribeLoggerToAllEvents(app.EventService, app.Logger); err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to subscribe event logger")
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	// Register and start maintenance jobs last so job events reach
	// connected clients
	if err := app.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	logger.Info().
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Bool("summary_enabled", app.SummaryService.Enabled()).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the storage layer (Badger)
func (a *App) initStorage() error {
	manager, err := badgerstorage.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = manager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	a.seedDefaults()
	return nil
}

// seedDefaults writes missing default KV values so they are visible in the
// store where an operator can inspect and edit them
func (a *App) seedDefaults() {
	ctx := context.Background()
	kvStore := a.StorageManager.KVStorage()

	for _, kv := range common.GetDefaultKVValues() {
		if _, err := kvStore.Get(ctx, kv.Key); err == nil {
			continue
		}
		if err := kvStore.Set(ctx, kv.Key, kv.Value); err != nil {
			a.Logger.Warn().Err(err).Str("key", kv.Key).Msg("Failed to seed default value")
			continue
		}
		a.Logger.Debug().
			Str("key", kv.Key).
			Str("description", kv.Description).
			Msg("Seeded default value")
	}
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	// Browser pipeline
	a.BrowserService = browser.NewService(a.Config, a.Logger)
	a.ExtractorService = extractor.NewService(a.Config, a.Logger)
	a.CookieService = cookies.NewService(a.Config, a.Logger)
	a.PDFService = pdf.NewService(a.Logger)
	a.Logger.Debug().Msg("Browser pipeline initialized")

	// Note service
	a.NoteService = notes.NewService(
		a.Config,
		a.BrowserService,
		a.ExtractorService,
		a.CookieService,
		a.StorageManager,
		a.EventService,
		a.PDFService,
		a.Logger,
	)
	a.Logger.Debug().Msg("Note service initialized")

	// Login service
	loginService, err := login.NewService(
		a.Config,
		a.BrowserService,
		a.ExtractorService,
		a.CookieService,
		a.EventService,
		a.StorageManager.LoginEventStorage(),
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize login service: %w", err)
	}
	a.LoginService = loginService
	a.Logger.Debug().Msg("Login service initialized")

	// Summary service runs disabled without an API key
	a.SummaryService = llm.NewSummaryService(a.Config, a.StorageManager.KVStorage(), a.Logger)
	if a.SummaryService.Enabled() {
		a.Logger.Debug().Msg("Summary service initialized")
	} else {
		a.Logger.Info().Msg("Summarization disabled, set REDNOTE_CLAUDE_API_KEY or REDNOTE_GEMINI_API_KEY to enable")
	}

	// Scheduler service is created here so handlers can report on it;
	// jobs are registered and started after handler initialization
	a.SchedulerService = scheduler.NewService(a.EventService, a.Logger)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.StorageManager, a.LoginService, a.Logger, &a.Config.WebSocket)

	// Attach the log stream to the logger and start broadcasting
	a.WSWriter = handlers.NewWebSocketWriter(a.WSHandler, &a.Config.WebSocket)
	if err := a.WSWriter.Start(); err != nil {
		return fmt.Errorf("failed to start websocket log stream: %w", err)
	}
	// "context" is the channel name arbor delivers log batches on
	a.Logger.SetChannel("context", a.WSWriter.GetChannel())

	a.WSHandler.StartStatusBroadcaster()

	a.StatusHandler = handlers.NewStatusHandler(a.StorageManager, a.LoginService, a.SchedulerService, a.Logger)
	a.NoteHandler = handlers.NewNoteHandler(a.NoteService, a.SummaryService, a.Logger)
	a.LoginHandler = handlers.NewLoginHandler(a.LoginService, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
	return nil
}

// initScheduler registers maintenance jobs and starts the cron loop
func (a *App) initScheduler() error {
	if err := scheduler.RegisterMaintenanceJobs(a.SchedulerService, a.Config, a.StorageManager, a.LoginService, a.Logger); err != nil {
		return fmt.Errorf("failed to register maintenance jobs: %w", err)
	}

	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Scheduler disabled by configuration")
		return nil
	}

	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	a.Logger.Debug().Msg("Scheduler service started")
	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop scheduler first so no job runs against closing services
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Close the login session and its browser process
	if a.LoginService != nil {
		if err := a.LoginService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close login session")
		}
	}

	// Detach the websocket log stream
	if a.WSWriter != nil {
		if err := a.WSWriter.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop websocket log stream")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
