package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/links"
	"github.com/mrlokans/shortlinks/internal/settingsstore"
)

type fakeSettings struct {
	mu       sync.Mutex
	configs  map[settingsstore.JobName]settingsstore.JobConfig
	statuses map[settingsstore.JobName][2]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		configs: map[settingsstore.JobName]settingsstore.JobConfig{
			settingsstore.JobExpiryReport: {Enabled: true, Schedule: "0 8 * * *"},
			settingsstore.JobSweep:        {Enabled: false, Schedule: "30 3 * * *"},
		},
		statuses: map[settingsstore.JobName][2]string{},
	}
}

func (f *fakeSettings) GetJobConfig(job settingsstore.JobName) (settingsstore.JobConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configs[job], nil
}

func (f *fakeSettings) SetJobStatus(job settingsstore.JobName, status, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[job] = [2]string{status, message}
	return nil
}

func (f *fakeSettings) status(job settingsstore.JobName) [2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[job]
}

func noopJob(context.Context) (string, error) { return "ok", nil }

func TestSchedulerStartStop(t *testing.T) {
	settings := newFakeSettings()
	s := New(settings, time.UTC)
	s.Register(settingsstore.JobExpiryReport, noopJob)
	s.Register(settingsstore.JobSweep, noopJob)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.GetNextRunTime(settingsstore.JobExpiryReport)
	require.NotNil(t, next)
	assert.Equal(t, 8, next.Hour())
	assert.Nil(t, s.GetNextRunTime(settingsstore.JobSweep), "disabled job is not scheduled")

	require.NoError(t, s.Start(context.Background()), "second start is a no-op")

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime(settingsstore.JobExpiryReport))
}

func TestSchedulerStart_NoJobsEnabled(t *testing.T) {
	settings := newFakeSettings()
	settings.configs[settingsstore.JobExpiryReport] = settingsstore.JobConfig{Enabled: false, Schedule: "0 8 * * *"}

	s := New(settings, nil)
	s.Register(settingsstore.JobExpiryReport, noopJob)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestSchedulerStart_InvalidSchedule(t *testing.T) {
	settings := newFakeSettings()
	settings.configs[settingsstore.JobExpiryReport] = settingsstore.JobConfig{Enabled: true, Schedule: "every morning"}

	s := New(settings, time.UTC)
	s.Register(settingsstore.JobExpiryReport, noopJob)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every morning")
	assert.False(t, s.IsRunning())
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	s := New(newFakeSettings(), time.UTC)
	s.Register(settingsstore.JobExpiryReport, noopJob)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerReschedule(t *testing.T) {
	settings := newFakeSettings()
	s := New(settings, time.UTC)
	s.Register(settingsstore.JobExpiryReport, noopJob)
	s.Register(settingsstore.JobSweep, noopJob)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	settings.mu.Lock()
	settings.configs[settingsstore.JobSweep] = settingsstore.JobConfig{Enabled: true, Schedule: "0 0 * * *"}
	settings.mu.Unlock()

	require.NoError(t, s.Reschedule())
	assert.True(t, s.IsRunning())
	next := s.GetNextRunTime(settingsstore.JobSweep)
	require.NotNil(t, next)
	assert.Equal(t, 0, next.Hour())
}

func TestSchedulerRunOnce_RecordsStatus(t *testing.T) {
	settings := newFakeSettings()
	s := New(settings, time.UTC)
	s.Register(settingsstore.JobExpiryReport, noopJob)
	s.Register(settingsstore.JobSweep, func(context.Context) (string, error) {
		return "", errors.New("database is locked")
	})

	require.NoError(t, s.RunOnce(context.Background(), settingsstore.JobExpiryReport))
	assert.Equal(t, [2]string{settingsstore.JobStatusSuccess, "ok"}, settings.status(settingsstore.JobExpiryReport))

	err := s.RunOnce(context.Background(), settingsstore.JobSweep)
	require.Error(t, err)
	assert.Equal(t, [2]string{settingsstore.JobStatusFailed, "database is locked"}, settings.status(settingsstore.JobSweep))
}

func TestSchedulerRunNow(t *testing.T) {
	settings := newFakeSettings()
	s := New(settings, time.UTC)

	release := make(chan struct{})
	s.Register(settingsstore.JobSweep, func(context.Context) (string, error) {
		<-release
		return "done", nil
	})

	assert.ErrorIs(t, s.RunNow(settingsstore.JobExpiryReport), ErrJobNotRegistered)

	require.NoError(t, s.RunNow(settingsstore.JobSweep))
	assert.True(t, s.IsActive(settingsstore.JobSweep))
	assert.ErrorIs(t, s.RunNow(settingsstore.JobSweep), ErrJobRunning, "overlapping runs are refused")

	close(release)
	assert.Eventually(t, func() bool {
		return settings.status(settingsstore.JobSweep)[0] == settingsstore.JobStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !s.IsActive(settingsstore.JobSweep) }, time.Second, 10*time.Millisecond)
}

type fakeClassifier struct {
	report *links.ExpiryReport
	err    error
}

func (f *fakeClassifier) Classify(context.Context) (*links.ExpiryReport, error) {
	return f.report, f.err
}

type fakeSnapshots struct {
	kind string
	data any
}

func (f *fakeSnapshots) SaveJSON(kind string, data any) (string, error) {
	f.kind, f.data = kind, data
	return "expiry-report-test.json", nil
}

func TestExpiryReportJob(t *testing.T) {
	expiry := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	report := &links.ExpiryReport{
		Expired: []entities.Mapping{{Path: "promo", Target: "https://example.com", Expiry: &expiry, Enabled: true}},
		Expiring: []entities.Mapping{
			{Path: "a", Target: "https://a.example", Expiry: &expiry, Enabled: true},
			{Path: "b", Target: "https://b.example", Expiry: &expiry, Enabled: true},
		},
	}
	snapshots := &fakeSnapshots{}

	message, err := ExpiryReportJob(&fakeClassifier{report: report}, snapshots)(context.Background())
	require.NoError(t, err)
	assert.Contains(t, message, "1 expired, 2 expiring within 3 days")
	assert.Contains(t, message, "expiry-report-test.json")

	assert.Equal(t, "expiry-report", snapshots.kind)
	summary, ok := snapshots.data.(ReportSummary)
	require.True(t, ok)
	require.Len(t, summary.Expired, 1)
	assert.Equal(t, "promo", summary.Expired[0].Path)
	assert.Equal(t, expiry, summary.Expired[0].Expiry)
}

func TestExpiryReportJob_EmptyReportSkipsSnapshot(t *testing.T) {
	report := &links.ExpiryReport{Expired: []entities.Mapping{}, Expiring: []entities.Mapping{}}
	snapshots := &fakeSnapshots{}

	message, err := ExpiryReportJob(&fakeClassifier{report: report}, snapshots)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0 expired, 0 expiring within 3 days", message)
	assert.Empty(t, snapshots.kind)
}

func TestExpiryReportJob_Error(t *testing.T) {
	_, err := ExpiryReportJob(&fakeClassifier{err: errors.New("no such table")}, nil)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify mappings")
}

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
	actor   string
	deleted int64
	err     error
}

func (f *fakeRecorder) LogSweep(actor string, deleted int64, _ int, _ time.Time, err error) {
	f.actor, f.deleted, f.err = actor, deleted, err
}

func TestSweepJob(t *testing.T) {
	sweeper := &fakeSweeper{result: links.SweepResult{Deleted: 12, Batches: 2}}
	recorder := &fakeRecorder{}

	message, err := SweepJob(sweeper, recorder, 10)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Deleted 12 expired mappings in 2 batches", message)
	assert.Equal(t, 10, sweeper.batchSize)
	assert.Equal(t, entities.AuditActorScheduler, recorder.actor)
	assert.Equal(t, int64(12), recorder.deleted)

	_, err = SweepJob(sweeper, nil, 0)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, links.DefaultSweepBatchSize, sweeper.batchSize)
}

func TestSweepJob_Error(t *testing.T) {
	sweeper := &fakeSweeper{result: links.SweepResult{Deleted: 4}, err: errors.New("disk full")}
	recorder := &fakeRecorder{}

	_, err := SweepJob(sweeper, recorder, 5)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleted 4")
	assert.Error(t, recorder.err)
}
