package http

import (
	"html/template"
	"time"

	"github.com/mrlokans/shortlinks/internal/auth"
	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. Optional dependencies may be left nil.
type RouterConfig struct {
	// Core dependencies
	Links    MappingService
	Database *database.Database

	// Audit trail (optional)
	Events      EventRecorder
	AuditEvents AuditReader

	// Maintenance (optional)
	TaskQueue      TaskQueue
	LegacyImporter LegacyImporter
	JobSettings    JobSettings
	Scheduler      JobScheduler

	// Authentication. Leave AuthController nil to run without the admin gate.
	AuthController *auth.AuthController
	SessionManager *auth.SessionManager
	CSRFKey        []byte

	// Templates defaults to LoadTemplates when nil.
	Templates *template.Template

	// Settings
	Auth        config.Auth
	Legacy      config.Legacy
	Sweep       config.Sweep
	Location    *time.Location // Time zone of dates shown on pages
	PageSize    int            // Default admin page size
	MaxPageSize int
	QRCodeSize  int
	HSTSMaxAge  int // Zero disables Strict-Transport-Security

	// Application info
	Version string
}
