package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/shortlinks/internal/settingsstore"
)

var (
	ErrJobNotRegistered = errors.New("job not registered")
	ErrJobRunning       = errors.New("job is already running")
)

// Job performs one run and returns a short summary stored as the job's last
// status message.
type Job func(ctx context.Context) (string, error)

// Settings resolves job configuration and records run outcomes.
// settingsstore.SettingsStore satisfies it.
type Settings interface {
	GetJobConfig(job settingsstore.JobName) (settingsstore.JobConfig, error)
	SetJobStatus(job settingsstore.JobName, status, message string) error
}

// Scheduler runs registered jobs on the cron schedules stored in settings.
type Scheduler struct {
	settings Settings
	location *time.Location
	jobs     map[settingsstore.JobName]Job

	cron       *cron.Cron
	entries    map[settingsstore.JobName]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	active     map[settingsstore.JobName]bool
	parent     context.Context
	jobCtx     context.Context
	cancelFunc context.CancelFunc
}

// New creates a scheduler evaluating schedules in loc (time.Local when nil).
func New(settings Settings, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		settings: settings,
		location: loc,
		jobs:     make(map[settingsstore.JobName]Job),
		entries:  make(map[settingsstore.JobName]cron.EntryID),
		active:   make(map[settingsstore.JobName]bool),
	}
}

// Register attaches the implementation of a job. Jobs must be registered
// before Start.
func (s *Scheduler) Register(name settingsstore.JobName, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = job
}

// Start schedules every enabled job. A job with an invalid schedule fails
// the whole start so misconfiguration is noticed at boot.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
		cron.WithLocation(s.location),
	)
	entries := make(map[settingsstore.JobName]cron.EntryID)

	for _, name := range settingsstore.Jobs() {
		if _, ok := s.jobs[name]; !ok {
			continue
		}
		cfg, err := s.settings.GetJobConfig(name)
		if err != nil {
			return fmt.Errorf("failed to load %s settings: %w", name, err)
		}
		if !cfg.Enabled {
			log.Printf("Scheduler: %s disabled", name)
			continue
		}
		if err := settingsstore.ValidateCronSchedule(cfg.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", cfg.Schedule, name, err)
		}

		job := name
		entryID, err := c.AddFunc(cfg.Schedule, func() {
			_ = s.run(job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
		entries[name] = entryID
		log.Printf("Scheduler: %s scheduled '%s' (%s)", name, cfg.Schedule, settingsstore.GetCronDescription(cfg.Schedule))
	}

	if ctx == nil {
		ctx = context.Background()
	}
	s.parent = ctx
	s.jobCtx, s.cancelFunc = context.WithCancel(ctx)

	if len(entries) == 0 {
		log.Printf("Scheduler: no jobs enabled")
		return nil
	}

	s.cron = c
	s.entries = entries
	c.Start()
	s.isRunning = true

	for name, id := range entries {
		log.Printf("Scheduler: next %s run at %v", name, c.Entry(id).Next)
	}

	jobCtx := s.jobCtx
	go func() {
		<-jobCtx.Done()
		if ctx.Err() != nil {
			s.stop(jobCtx)
		}
	}()

	return nil
}

// Stop stops scheduling, cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.stop(nil)
}

// stop stops the scheduler. A non-nil started restricts it to the run that
// created that context, so a stale watcher cannot stop a rescheduled run.
func (s *Scheduler) stop(started context.Context) {
	s.mu.Lock()
	if started != nil && started != s.jobCtx {
		s.mu.Unlock()
		return
	}
	if !s.isRunning {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.mu.Unlock()
		return
	}
	c := s.cron
	cancel := s.cancelFunc
	s.isRunning = false
	s.cron = nil
	s.entries = make(map[settingsstore.JobName]cron.EntryID)
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()

	log.Printf("Scheduler: stopped")
}

// Reschedule reloads schedules after a settings change.
func (s *Scheduler) Reschedule() error {
	s.mu.RLock()
	parent := s.parent
	s.mu.RUnlock()

	s.Stop()
	if parent == nil || parent.Err() != nil {
		parent = context.Background()
	}
	return s.Start(parent)
}

// RunNow triggers an immediate run of job in the background.
func (s *Scheduler) RunNow(name settingsstore.JobName) error {
	if err := s.claim(name); err != nil {
		return err
	}
	go func() {
		defer s.release(name)
		_ = s.execute(s.context(), name)
	}()
	return nil
}

// RunOnce runs job synchronously, recording its status like a scheduled run.
func (s *Scheduler) RunOnce(ctx context.Context, name settingsstore.JobName) error {
	if err := s.claim(name); err != nil {
		return err
	}
	defer s.release(name)
	return s.execute(ctx, name)
}

// IsRunning returns whether the cron loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsActive returns whether a run of job is in progress.
func (s *Scheduler) IsActive(name settingsstore.JobName) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[name]
}

// GetNextRunTime returns when job fires next, or nil when it is not scheduled.
func (s *Scheduler) GetNextRunTime(name settingsstore.JobName) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	next := s.cron.Entry(id).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// run is the cron callback. Overlapping runs of the same job are skipped.
func (s *Scheduler) run(name settingsstore.JobName) error {
	if err := s.claim(name); err != nil {
		log.Printf("Scheduler: %s skipped: %v", name, err)
		return err
	}
	defer s.release(name)
	return s.execute(s.context(), name)
}

func (s *Scheduler) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.jobCtx != nil {
		return s.jobCtx
	}
	return context.Background()
}

func (s *Scheduler) claim(name settingsstore.JobName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrJobNotRegistered, name)
	}
	if s.active[name] {
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	s.active[name] = true
	return nil
}

func (s *Scheduler) release(name settingsstore.JobName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, name)
}

func (s *Scheduler) execute(ctx context.Context, name settingsstore.JobName) error {
	s.mu.RLock()
	job := s.jobs[name]
	s.mu.RUnlock()

	startTime := time.Now()
	message, err := job(ctx)
	duration := time.Since(startTime).Round(time.Millisecond)

	status := settingsstore.JobStatusSuccess
	if err != nil {
		status = settingsstore.JobStatusFailed
		message = err.Error()
		log.Printf("Scheduler: %s failed after %v: %v", name, duration, err)
	} else {
		log.Printf("Scheduler: %s finished in %v: %s", name, duration, message)
	}

	if serr := s.settings.SetJobStatus(name, status, message); serr != nil {
		log.Printf("Scheduler: failed to record %s status: %v", name, serr)
	}
	return err
}
