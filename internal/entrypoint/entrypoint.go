package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/mrlokans/shortlinks/internal/audit"
	"github.com/mrlokans/shortlinks/internal/auth"
	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/database"
	auditrepo "github.com/mrlokans/shortlinks/internal/database/audit"
	"github.com/mrlokans/shortlinks/internal/database/mappings"
	"github.com/mrlokans/shortlinks/internal/database/settings"
	http_controllers "github.com/mrlokans/shortlinks/internal/http"
	"github.com/mrlokans/shortlinks/internal/legacy"
	"github.com/mrlokans/shortlinks/internal/links"
	"github.com/mrlokans/shortlinks/internal/scheduler"
	"github.com/mrlokans/shortlinks/internal/settingsstore"
	"github.com/mrlokans/shortlinks/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Components are the services shared by the server and the CLI commands.
type Components struct {
	Config   *config.Config
	Location *time.Location
	Database *database.Database
	Links    *links.Service
	Audit    *audit.Service
	Auditor  *audit.Auditor
	Importer *legacy.Importer
	Settings *settingsstore.SettingsStore
}

// NewComponents opens the database and builds the services on top of it.
// Close must be called when done.
func NewComponents(cfg *config.Config) (*Components, error) {
	loc, err := cfg.Links.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	svc := links.NewService(mappings.NewRepository(db.DB), links.WithLocation(loc))
	auditor := audit.NewAuditor(cfg.Audit.Dir)

	return &Components{
		Config:   cfg,
		Location: loc,
		Database: db,
		Links:    svc,
		Audit:    audit.NewService(auditrepo.NewRepository(db.DB)),
		Auditor:  auditor,
		Importer: legacy.NewImporter(svc, auditor),
		Settings: settingsstore.New(settings.NewRepository(db.DB), cfg),
	}, nil
}

// Scheduler builds the cron scheduler with both maintenance jobs registered.
func (c *Components) Scheduler() *scheduler.Scheduler {
	sched := scheduler.New(c.Settings, c.Location)
	sched.Register(settingsstore.JobExpiryReport, scheduler.ExpiryReportJob(c.Links, c.Auditor))
	sched.Register(settingsstore.JobSweep, scheduler.SweepJob(c.Links, c.Audit, c.Config.Sweep.BatchSize))
	return sched
}

// Close flushes pending audit events and closes the database.
func (c *Components) Close() {
	c.Audit.Wait()
	if err := c.Database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

// Handler wraps router with the transport level handlers enabled in cfg.
func Handler(router http.Handler, cfg config.HTTP) http.Handler {
	handler := router
	if cfg.Compress {
		handler = handlers.CompressHandler(handler)
	}
	if cfg.TrustProxyHeaders {
		handler = handlers.ProxyHeaders(handler)
	}
	return handler
}

func Serve(handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work is stopped after the listener so in-flight requests
	// can still enqueue.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting shortlinks v%s", version)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app, err := NewComponents(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	log.Printf("Calendar days are evaluated in %s", app.Location)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewSweepExpiredMappingsQueue(app.Links, app.Audit),
			tasks.NewImportLegacyMappingsQueue(app.Importer, cfg.Legacy, app.Audit),
			tasks.NewCleanupAuditEventsQueue(app.Audit),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if _, err := taskClient.Enqueue(taskCtx, tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays}); err != nil {
			log.Printf("Warning: failed to enqueue audit cleanup: %v", err)
		}
	} else {
		log.Printf("Task queue disabled; maintenance requests run inline")
	}

	sched := app.Scheduler()
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := sched.Start(schedCtx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Links:          app.Links,
		Database:       app.Database,
		Events:         app.Audit,
		AuditEvents:    app.Audit,
		LegacyImporter: app.Importer,
		JobSettings:    app.Settings,
		Scheduler:      sched,
		Auth:           cfg.Auth,
		Legacy:         cfg.Legacy,
		Sweep:          cfg.Sweep,
		Location:       app.Location,
		PageSize:       cfg.Links.DefaultPageSize,
		MaxPageSize:    cfg.Links.MaxPageSize,
		QRCodeSize:     cfg.Links.QRCodeSize,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	var authController *auth.AuthController
	if cfg.Auth.Mode == config.AuthModePassword {
		log.Printf("Authentication mode: password")

		templates, err := http_controllers.LoadTemplates()
		if err != nil {
			log.Fatalf("Failed to load templates: %v", err)
		}
		authService, err := auth.NewService(cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize authentication: %v", err)
		}

		sqlDB, err := app.Database.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}
		sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		csrfKey, err := auth.DeriveKey(cfg.Auth.SessionSecret)
		if err != nil {
			log.Fatalf("Failed to derive CSRF key: %v", err)
		}
		if cfg.Auth.SessionSecret == "" {
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		authController = auth.NewAuthController(authService, sessionManager, templates, cfg.Auth, app.Audit)
		routerCfg.AuthController = authController
		routerCfg.SessionManager = sessionManager
		routerCfg.CSRFKey = csrfKey
		routerCfg.Templates = templates
		if cfg.Auth.SecureCookies {
			routerCfg.HSTSMaxAge = 31536000
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		sched.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		if authController != nil {
			authController.Stop()
		}
	}

	Serve(Handler(router, cfg.HTTP), cfg, onShutdown)
}
