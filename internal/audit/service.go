package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/shortlinks/internal/database/audit"
	"github.com/mrlokans/shortlinks/internal/entities"
)

const maxFieldLen = 500

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until all events queued with LogAsync are written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogMapping records a create, update or delete of the mapping at path.
func (s *Service) LogMapping(eventType entities.AuditEventType, path, actor, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   eventType,
		Action:      "mapping_" + string(eventType),
		Description: truncate(description, maxFieldLen),
		Path:        path,
		Actor:       actor,
		Status:      entities.AuditStatusSuccess,
	}
	withError(event, err)
	s.LogAsync(event)
}

// LogSweep records one run of the expired mapping sweep.
func (s *Service) LogSweep(actor string, deleted int64, batches int, cutoff time.Time, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSweep,
		Action:      "expired_sweep",
		Description: fmt.Sprintf("Deleted %d expired mappings in %d batches", deleted, batches),
		Actor:       actor,
		Status:      entities.AuditStatusSuccess,
	}
	withMetadata(event, map[string]any{
		"deleted": deleted,
		"batches": batches,
		"cutoff":  cutoff.UTC().Format(time.RFC3339),
	})
	withError(event, err)
	s.LogAsync(event)
}

// LogImport records a legacy key/value import.
func (s *Service) LogImport(actor, source string, imported, skipped, failed int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventImport,
		Action:      source + "_import",
		Description: fmt.Sprintf("Imported %d mappings (%d skipped, %d failed)", imported, skipped, failed),
		Actor:       actor,
		Status:      entities.AuditStatusSuccess,
	}
	withMetadata(event, map[string]any{
		"imported": imported,
		"skipped":  skipped,
		"failed":   failed,
	})
	withError(event, err)
	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		EventType: entities.AuditEventAuth,
		Action:    action,
		Actor:     ipAddr,
		UserAgent: truncate(userAgent, maxFieldLen),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func withError(event *entities.AuditEvent, err error) {
	if err == nil {
		return
	}
	event.Status = entities.AuditStatusFailed
	event.ErrorMsg = truncate(err.Error(), maxFieldLen)
}

func withMetadata(event *entities.AuditEvent, metadata map[string]any) {
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
