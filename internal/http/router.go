package http

import (
	"html/template"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/auth"
	"github.com/mrlokans/shortlinks/internal/config"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
//
// Public pages (link resolution, health) only pass through the logging and
// security header middleware. Session, CSRF and admin checks are confined to
// the admin group so visitors never receive cookies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	// Client addresses come from RemoteAddr only; forwarded headers are
	// applied by the proxy handler in front of gin when configured.
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Printf("Warning: failed to reset trusted proxies: %v", err)
	}
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}

	tmpl := cfg.Templates
	if tmpl == nil {
		tmpl = template.Must(LoadTemplates())
	}
	router.SetHTMLTemplate(tmpl)

	pages := NewPagesController(cfg.Links, cfg.Location, cfg.QRCodeSize, cfg.PageSize)
	health := NewHealthController(cfg.Database, cfg.Version, cfg.Scheduler, cfg.TaskQueue != nil)

	// Public routes
	router.GET("/", pages.Root)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)
	router.NoRoute(pages.Resolve)

	secured := router.Group("")

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFKey) > 0 {
		secured.Use(auth.CSRFMiddleware(cfg.CSRFKey, cfg.Auth.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		secured.Use(cfg.SessionManager.SessionLoadSave())
	}

	authCfg := cfg.Auth
	if cfg.AuthController == nil {
		authCfg.Mode = config.AuthModeNone
	}
	authMiddleware := auth.NewMiddleware(cfg.SessionManager, authCfg)
	secured.Use(authMiddleware.Handler())

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(secured)
	}

	admin := secured.Group("", authMiddleware.RequireAdmin())
	admin.GET("/admin", pages.Admin)
	admin.GET("/api/qr", pages.TargetQR)

	mappings := NewMappingsController(cfg.Links, cfg.Links, cfg.Events, cfg.PageSize, cfg.MaxPageSize)
	admin.GET("/api/mappings", mappings.ListMappings)
	admin.GET("/api/mapping", mappings.GetMapping)
	admin.POST("/api/mapping", mappings.CreateMapping)
	admin.PUT("/api/mapping", mappings.UpdateMapping)
	admin.DELETE("/api/mapping", mappings.DeleteMapping)
	admin.GET("/api/expiring-mappings", mappings.ExpiringMappings)

	maintenance := NewMaintenanceController(MaintenanceDeps{
		Sweeper:   cfg.Links,
		Importer:  cfg.LegacyImporter,
		Queue:     cfg.TaskQueue,
		Events:    cfg.Events,
		Settings:  cfg.JobSettings,
		Scheduler: cfg.Scheduler,
		Legacy:    cfg.Legacy,
		BatchSize: cfg.Sweep.BatchSize,
	})
	admin.POST("/api/maintenance/sweep", maintenance.Sweep)
	admin.POST("/api/maintenance/import", maintenance.Import)
	admin.GET("/api/maintenance/jobs", maintenance.ListJobs)
	admin.PUT("/api/maintenance/jobs/:name", maintenance.UpdateJob)
	admin.POST("/api/maintenance/jobs/:name/run", maintenance.RunJob)

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		admin.GET("/api/tasks/types", tasksController.ListTaskTypes)
		admin.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	if cfg.AuditEvents != nil {
		auditController := NewAuditController(cfg.AuditEvents)
		admin.GET("/api/audit", auditController.GetAuditEvents)
	}

	return router
}
