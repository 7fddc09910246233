package settingsstore

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/shortlinks/internal/entities"
)

// JobName identifies a scheduled job.
type JobName string

const (
	JobExpiryReport JobName = "expiry_report"
	JobSweep        JobName = "sweep"
)

// Job run outcomes stored as last status.
const (
	JobStatusSuccess = "success"
	JobStatusFailed  = "failed"
)

var ErrUnknownJob = errors.New("unknown job")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type jobKeys struct {
	enabled     string
	schedule    string
	lastAt      string
	lastStatus  string
	lastMessage string
	envEnabled  string
	envSchedule string
}

var jobs = map[JobName]jobKeys{
	JobExpiryReport: {
		enabled:     entities.SettingKeyExpiryReportEnabled,
		schedule:    entities.SettingKeyExpiryReportSchedule,
		lastAt:      entities.SettingKeyExpiryReportLastAt,
		lastStatus:  entities.SettingKeyExpiryReportLastStatus,
		lastMessage: entities.SettingKeyExpiryReportLastMessage,
		envEnabled:  "EXPIRY_REPORT_ENABLED",
		envSchedule: "EXPIRY_REPORT_SCHEDULE",
	},
	JobSweep: {
		enabled:     entities.SettingKeySweepEnabled,
		schedule:    entities.SettingKeySweepSchedule,
		lastAt:      entities.SettingKeySweepLastAt,
		lastStatus:  entities.SettingKeySweepLastStatus,
		lastMessage: entities.SettingKeySweepLastMessage,
		envEnabled:  "SWEEP_ENABLED",
		envSchedule: "SWEEP_SCHEDULE",
	},
}

// Jobs lists the known jobs in display order.
func Jobs() []JobName {
	return []JobName{JobExpiryReport, JobSweep}
}

// ParseJobName validates a job name coming from a request.
func ParseJobName(name string) (JobName, error) {
	job := JobName(name)
	if _, ok := jobs[job]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return job, nil
}

// JobConfig is the effective configuration of a job.
type JobConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// JobStatus describes the last run of a job.
type JobStatus struct {
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Status    string     `json:"status,omitempty"`  // "success", "failed", ""
	Message   string     `json:"message,omitempty"` // Error message or stats summary
}

// JobConfigInfo includes source information for each field.
type JobConfigInfo struct {
	Name JobName `json:"name"`

	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule            string     `json:"schedule"`
	ScheduleSource      string     `json:"schedule_source"`
	ScheduleDescription string     `json:"schedule_description"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`

	LastRun JobStatus `json:"last_run"`
}

func (s *SettingsStore) configured(job JobName) (bool, string) {
	switch job {
	case JobExpiryReport:
		return s.cfg.ExpiryReport.Enabled, s.cfg.ExpiryReport.Schedule
	case JobSweep:
		return s.cfg.Sweep.Enabled, s.cfg.Sweep.Schedule
	}
	return false, ""
}

func keysFor(job JobName) (jobKeys, error) {
	keys, ok := jobs[job]
	if !ok {
		return jobKeys{}, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
	return keys, nil
}

// GetJobConfig returns the effective configuration of job.
func (s *SettingsStore) GetJobConfig(job JobName) (JobConfig, error) {
	info, err := s.GetJobConfigInfo(job)
	if err != nil {
		return JobConfig{}, err
	}
	return JobConfig{Enabled: info.Enabled, Schedule: info.Schedule}, nil
}

// GetJobConfigInfo returns the configuration of job with the source of each
// value, the next run time and the last run status.
func (s *SettingsStore) GetJobConfigInfo(job JobName) (JobConfigInfo, error) {
	keys, err := keysFor(job)
	if err != nil {
		return JobConfigInfo{}, err
	}
	configuredEnabled, configuredSchedule := s.configured(job)

	enabled, enabledSource, err := s.resolveBool(keys.enabled, keys.envEnabled, configuredEnabled)
	if err != nil {
		return JobConfigInfo{}, err
	}
	schedule, scheduleSource, err := s.resolveString(keys.schedule, keys.envSchedule, configuredSchedule)
	if err != nil {
		return JobConfigInfo{}, err
	}

	info := JobConfigInfo{
		Name:                job,
		Enabled:             enabled,
		EnabledSource:       enabledSource,
		Schedule:            schedule,
		ScheduleSource:      scheduleSource,
		ScheduleDescription: GetCronDescription(schedule),
		LastRun:             s.GetJobStatus(job),
	}
	if enabled {
		if next, err := GetNextRunTime(schedule, time.Now()); err == nil {
			info.NextRunAt = next
		}
	}
	return info, nil
}

// SetJobEnabled saves the enabled override for job.
func (s *SettingsStore) SetJobEnabled(job JobName, enabled bool) error {
	keys, err := keysFor(job)
	if err != nil {
		return err
	}
	return s.repo.SetSetting(keys.enabled, strconv.FormatBool(enabled))
}

// SetJobSchedule validates and saves the schedule override for job.
func (s *SettingsStore) SetJobSchedule(job JobName, schedule string) error {
	keys, err := keysFor(job)
	if err != nil {
		return err
	}
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return s.repo.SetSetting(keys.schedule, schedule)
}

// ClearJobSettings drops the database overrides of job, reverting to
// environment and defaults. Run status is kept.
func (s *SettingsStore) ClearJobSettings(job JobName) error {
	keys, err := keysFor(job)
	if err != nil {
		return err
	}
	return s.clear(keys.enabled, keys.schedule)
}

// GetJobStatus returns the last recorded run of job. Read errors yield an
// empty status.
func (s *SettingsStore) GetJobStatus(job JobName) JobStatus {
	keys, err := keysFor(job)
	if err != nil {
		return JobStatus{}
	}

	status := JobStatus{}
	if value, ok, _ := s.lookup(keys.lastAt); ok {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			status.LastRunAt = &ts
		}
	}
	status.Status, _, _ = s.lookup(keys.lastStatus)
	status.Message, _, _ = s.lookup(keys.lastMessage)
	return status
}

// SetJobStatus records the outcome of a run of job at the current time.
func (s *SettingsStore) SetJobStatus(job JobName, status, message string) error {
	keys, err := keysFor(job)
	if err != nil {
		return err
	}
	return s.repo.SetSettings(map[string]string{
		keys.lastAt:      time.Now().UTC().Format(time.RFC3339),
		keys.lastStatus:  status,
		keys.lastMessage: message,
	})
}

// ValidateCronSchedule validates a five field cron schedule string.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 8 * * *":
		return "Daily at 08:00"
	case "30 3 * * *":
		return "Daily at 03:30"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when schedule fires next after from.
func GetNextRunTime(schedule string, from time.Time) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(from)
	return &next, nil
}
