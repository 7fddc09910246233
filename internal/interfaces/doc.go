// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation and compile-time checks
// so extension points are easy to find.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - links.Store: Mapping persistence (internal/links/service.go)
//   - settingsstore.Repository: Job override persistence (internal/settingsstore/settingsstore.go)
//   - AuditReader: Audit event listing (internal/http/stores.go)
//
// ## HTTP Interfaces
//
//   - MappingService: Admin CRUD, expiry report, sweep and resolution (internal/http/stores.go)
//   - EventRecorder: Audit trail of admin actions (internal/http/stores.go)
//   - TaskQueue: Background task submission (internal/http/stores.go)
//   - JobSettings, JobScheduler: Scheduled job control (internal/http/stores.go)
//
// ## Background Work Interfaces
//
//   - scheduler.Classifier, scheduler.Sweeper: Cron job dependencies (internal/scheduler/jobs.go)
//   - tasks.Sweeper, tasks.LegacyImporter, tasks.AuditEventCleaner: Queue processors (internal/tasks/)
//
// ## Legacy Import Interfaces
//
//   - legacy.Source: Paged reader of old key/value entries (internal/legacy/source.go)
//   - legacy.KV: The subset of a Redis client the Redis source needs (internal/legacy/redis_source.go)
//
// # Adding a New Legacy Source
//
// To import from another dump format (e.g., a CSV export), implement Source
// in internal/legacy/:
//
//	type CSVSource struct {
//		rows [][]string
//	}
//
//	func (s *CSVSource) Name() string
//	func (s *CSVSource) Page(ctx context.Context, cursor string) ([]Entry, string, error)
//	func (s *CSVSource) Close() error
//
//	var _ Source = (*CSVSource)(nil)
//
// Then add a field to SourceSpec and handle it in legacy.Open. The
// import-legacy command in internal/cli/ needs a matching flag.
//
// # Adding a New Scheduled Job
//
// Add a JobName and its default schedule in internal/settingsstore/, then
// write a constructor returning scheduler.Job in internal/scheduler/jobs.go:
//
//	func ReportJob(c Classifier) Job {
//		return func(ctx context.Context) (string, error) {
//			// Return a one-line status message
//		}
//	}
//
// Register it in Components.Scheduler (internal/entrypoint/entrypoint.go).
//
// # Adding a New Background Task
//
//  1. Define the task type with a Config() method in internal/tasks/
//
//  2. Write a queue constructor using backlite.NewQueue
//
//  3. Register the queue in entrypoint.Run and expose it in TasksController
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the checks covering the application wiring.
package interfaces
