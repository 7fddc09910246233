package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shortlinks/internal/database/audit"
	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/legacy"
	"github.com/mrlokans/shortlinks/internal/links"
	"github.com/mrlokans/shortlinks/internal/settingsstore"
)

// This file consolidates the interfaces used by HTTP controllers. Each
// controller depends on the narrowest one it needs; links.Service,
// audit.Service, tasks.Client and scheduler.Scheduler implement them.

// MappingStore covers the admin CRUD and listing operations.
type MappingStore interface {
	Create(ctx context.Context, in links.MappingInput) (*entities.Mapping, error)
	Get(ctx context.Context, path string) (*entities.Mapping, error)
	Update(ctx context.Context, originalPath string, in links.MappingInput) (*entities.Mapping, error)
	Delete(ctx context.Context, path string) error
	ListPage(ctx context.Context, page, pageSize int) (*links.Page, error)
}

// ExpiryClassifier builds the expired / expiring report.
type ExpiryClassifier interface {
	Classify(ctx context.Context) (*links.ExpiryReport, error)
}

// MappingSweeper runs the expired mapping sweep synchronously.
type MappingSweeper interface {
	Sweep(ctx context.Context, batchSize int) (links.SweepResult, error)
}

// Resolver classifies a public visit of a short path.
type Resolver interface {
	Resolve(ctx context.Context, path string) (*links.Resolution, error)
}

// MappingService is everything links.Service offers to the HTTP layer.
type MappingService interface {
	MappingStore
	ExpiryClassifier
	MappingSweeper
	Resolver
}

// EventRecorder records admin actions in the audit trail.
type EventRecorder interface {
	LogMapping(eventType entities.AuditEventType, path, actor, description string, err error)
	LogSweep(actor string, deleted int64, batches int, cutoff time.Time, err error)
	LogImport(actor, source string, imported, skipped, failed int, err error)
}

// AuditReader lists audit events.
type AuditReader interface {
	GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, id string) (backlite.TaskStatus, error)
}

// LegacyImporter imports mappings from an opened legacy source.
type LegacyImporter interface {
	Import(ctx context.Context, src legacy.Source) (*legacy.ImportResult, error)
}

// JobSettings reads and overrides scheduled job configuration.
type JobSettings interface {
	GetJobConfigInfo(job settingsstore.JobName) (settingsstore.JobConfigInfo, error)
	SetJobEnabled(job settingsstore.JobName, enabled bool) error
	SetJobSchedule(job settingsstore.JobName, schedule string) error
	ClearJobSettings(job settingsstore.JobName) error
}

// JobScheduler controls the cron scheduler.
type JobScheduler interface {
	Reschedule() error
	RunNow(job settingsstore.JobName) error
	IsRunning() bool
	IsActive(job settingsstore.JobName) bool
	GetNextRunTime(job settingsstore.JobName) *time.Time
}
