package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/legacy"
	"github.com/mrlokans/shortlinks/internal/links"
)

type fakeSweeper struct {
	batchSize int
	result    links.SweepResult
	err       error
}

func (f *fakeSweeper) Sweep(_ context.Context, batchSize int) (links.SweepResult, error) {
	f.batchSize = batchSize
	return f.result, f.err
}

type fakeRecorder struct {
	actor    string
	deleted  int64
	source   string
	imported int
	err      error
	calls    int
}

func (f *fakeRecorder) LogSweep(actor string, deleted int64, batches int, cutoff time.Time, err error) {
	f.calls++
	f.actor, f.deleted, f.err = actor, deleted, err
}

func (f *fakeRecorder) LogImport(actor, source string, imported, skipped, failed int, err error) {
	f.calls++
	f.actor, f.source, f.imported, f.err = actor, source, imported, err
}

func TestSweepExpiredMappingsTaskConfig(t *testing.T) {
	cfg := SweepExpiredMappingsTask{}.Config()

	assert.Equal(t, QueueSweepExpiredMappings, cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestSweepExpiredMappingsProcessor(t *testing.T) {
	sweeper := &fakeSweeper{result: links.SweepResult{Deleted: 7, Batches: 2}}
	recorder := &fakeRecorder{}
	process := SweepExpiredMappingsProcessor(sweeper, recorder)

	require.NoError(t, process(context.Background(), SweepExpiredMappingsTask{Actor: "10.0.0.1"}))
	assert.Equal(t, links.DefaultSweepBatchSize, sweeper.batchSize)
	assert.Equal(t, "10.0.0.1", recorder.actor)
	assert.Equal(t, int64(7), recorder.deleted)

	require.NoError(t, process(context.Background(), SweepExpiredMappingsTask{BatchSize: 5}))
	assert.Equal(t, 5, sweeper.batchSize)
}

func TestSweepExpiredMappingsProcessor_Error(t *testing.T) {
	sweeper := &fakeSweeper{result: links.SweepResult{Deleted: 3}, err: errors.New("disk I/O error")}
	recorder := &fakeRecorder{}

	err := SweepExpiredMappingsProcessor(sweeper, recorder)(context.Background(), SweepExpiredMappingsTask{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleted 3")
	assert.Error(t, recorder.err, "failure is recorded")

	assert.Error(t, SweepExpiredMappingsProcessor(nil, nil)(context.Background(), SweepExpiredMappingsTask{}))
}

type fakeImporter struct {
	source string
	err    error
}

func (f *fakeImporter) Import(_ context.Context, src legacy.Source) (*legacy.ImportResult, error) {
	f.source = src.Name()
	return &legacy.ImportResult{Source: src.Name(), Imported: 2}, f.err
}

func TestImportLegacyMappingsTaskConfig(t *testing.T) {
	cfg := ImportLegacyMappingsTask{}.Config()

	assert.Equal(t, QueueImportLegacyMappings, cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
}

func TestImportLegacyMappingsProcessor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	importer := &fakeImporter{}
	recorder := &fakeRecorder{}
	process := ImportLegacyMappingsProcessor(importer, config.Legacy{}, recorder)

	err := process(context.Background(), ImportLegacyMappingsTask{
		Source: legacy.SourceSpec{File: path},
		Actor:  "cli",
	})
	require.NoError(t, err)
	assert.Equal(t, "file:"+path, importer.source)
	assert.Equal(t, "file:"+path, recorder.source)
	assert.Equal(t, 2, recorder.imported)
}

func TestImportLegacyMappingsProcessor_OpenError(t *testing.T) {
	recorder := &fakeRecorder{}
	process := ImportLegacyMappingsProcessor(&fakeImporter{}, config.Legacy{}, recorder)

	err := process(context.Background(), ImportLegacyMappingsTask{})
	require.Error(t, err, "no redis address and no file")
	assert.Equal(t, 1, recorder.calls)
	assert.Error(t, recorder.err)
}

type fakeCleaner struct {
	retention time.Duration
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return 4, nil
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{}
	process := CleanupAuditEventsProcessor(cleaner)

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{}))
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)

	require.NoError(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)

	assert.Equal(t, QueueCleanupAuditEvents, CleanupAuditEventsTask{}.Config().Name)
	assert.Error(t, CleanupAuditEventsProcessor(nil)(context.Background(), CleanupAuditEventsTask{}))
}
