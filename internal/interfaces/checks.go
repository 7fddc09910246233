package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/shortlinks/internal/audit"
	"github.com/mrlokans/shortlinks/internal/auth"
	auditrepo "github.com/mrlokans/shortlinks/internal/database/audit"
	"github.com/mrlokans/shortlinks/internal/database/mappings"
	"github.com/mrlokans/shortlinks/internal/database/settings"
	"github.com/mrlokans/shortlinks/internal/http"
	"github.com/mrlokans/shortlinks/internal/legacy"
	"github.com/mrlokans/shortlinks/internal/links"
	"github.com/mrlokans/shortlinks/internal/scheduler"
	"github.com/mrlokans/shortlinks/internal/settingsstore"
	"github.com/mrlokans/shortlinks/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Mapping storage
var _ links.Store = (*mappings.Repository)(nil)

// Settings storage
var _ settingsstore.Repository = (*settings.Repository)(nil)

// Audit storage
var _ http.AuditReader = (*auditrepo.Repository)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.MappingService = (*links.Service)(nil)
var _ http.EventRecorder = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ http.LegacyImporter = (*legacy.Importer)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.JobSettings = (*settingsstore.SettingsStore)(nil)
var _ http.JobScheduler = (*scheduler.Scheduler)(nil)
var _ http.SchedulerState = (*scheduler.Scheduler)(nil)
var _ auth.EventLogger = (*audit.Service)(nil)

// =============================================================================
// Scheduled Jobs
// =============================================================================

var _ scheduler.Settings = (*settingsstore.SettingsStore)(nil)
var _ scheduler.Classifier = (*links.Service)(nil)
var _ scheduler.Sweeper = (*links.Service)(nil)
var _ scheduler.SweepRecorder = (*audit.Service)(nil)
var _ scheduler.Snapshotter = (*audit.Auditor)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.Sweeper = (*links.Service)(nil)
var _ tasks.SweepRecorder = (*audit.Service)(nil)
var _ tasks.LegacyImporter = (*legacy.Importer)(nil)
var _ tasks.ImportRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Legacy Import
// =============================================================================

var _ legacy.Creator = (*links.Service)(nil)
var _ legacy.Snapshotter = (*audit.Auditor)(nil)
var _ legacy.Source = (*legacy.RedisSource)(nil)
var _ legacy.Source = (*legacy.FileSource)(nil)
var _ legacy.KV = (*redis.Client)(nil)
