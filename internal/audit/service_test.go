package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditRepo "github.com/mrlokans/shortlinks/internal/database/audit"
	"github.com/mrlokans/shortlinks/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Async writes must see the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCreate,
		Action:      "mapping_create",
		Description: "Created promo",
		Status:      entities.AuditStatusSuccess,
	}

	err := svc.Log(event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "mapping_create", saved.Action)
}

func TestService_LogMapping(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful update", func(t *testing.T) {
		svc.LogMapping(entities.AuditEventUpdate, "docs", "10.0.0.1", "Renamed old to docs", nil)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "mapping_update").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "docs", event.Path)
		assert.Equal(t, "10.0.0.1", event.Actor)
	})

	t.Run("failed delete", func(t *testing.T) {
		svc.LogMapping(entities.AuditEventDelete, "admin", "10.0.0.1", "Delete rejected", errors.New("path is reserved"))
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "mapping_delete").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Contains(t, event.ErrorMsg, "reserved")
	})
}

func TestService_LogSweep(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogSweep(entities.AuditActorScheduler, 120, 2, time.Now(), nil)
	svc.Wait()

	var event entities.AuditEvent
	err := db.Where("action = ?", "expired_sweep").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventSweep, event.EventType)
	assert.Equal(t, entities.AuditActorScheduler, event.Actor)
	assert.Contains(t, event.Description, "120")
	assert.Contains(t, event.Metadata, `"batches":2`)
}

func TestService_LogImport(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogImport(entities.AuditActorCLI, "redis", 10, 2, 1, nil)
	svc.Wait()

	var event entities.AuditEvent
	err := db.Where("action = ?", "redis_import").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditStatusSuccess, event.Status)
	assert.Contains(t, event.Metadata, "imported")
	assert.Contains(t, event.Metadata, "skipped")
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful login", func(t *testing.T) {
		svc.LogAuth("login", "192.168.1.1", "Mozilla/5.0", true)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "login").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "192.168.1.1", event.Actor)
	})

	t.Run("failed login", func(t *testing.T) {
		svc.LogAuth("login_failed", "10.0.0.1", "curl/7.68.0", false)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "login_failed").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
	})
}

func TestService_GetEvents(t *testing.T) {
	svc, _ := setupTestService(t)

	for i := 0; i < 5; i++ {
		err := svc.Log(&entities.AuditEvent{
			EventType: entities.AuditEventCreate,
			Action:    "mapping_create",
			Path:      "docs",
			Status:    entities.AuditStatusSuccess,
		})
		require.NoError(t, err)
	}

	events, total, err := svc.GetEvents(auditRepo.Filter{Path: "docs"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, events, 5)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	oldEvent := &entities.AuditEvent{
		EventType: entities.AuditEventSweep,
		Action:    "old",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour).UTC(),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	newEvent := &entities.AuditEvent{
		EventType: entities.AuditEventDelete,
		Action:    "new",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(newEvent).Error)

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Action)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a very long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tc := range tests {
		result := truncate(tc.input, tc.maxLen)
		assert.Equal(t, tc.expected, result)
	}
}
