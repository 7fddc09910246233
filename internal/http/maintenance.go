package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/legacy"
	"github.com/mrlokans/shortlinks/internal/links"
	"github.com/mrlokans/shortlinks/internal/scheduler"
	"github.com/mrlokans/shortlinks/internal/settingsstore"
	"github.com/mrlokans/shortlinks/internal/tasks"
)

const maintenanceTimeout = 5 * time.Minute

// MaintenanceController triggers sweeps and legacy imports, either through
// the task queue or inline when the queue is disabled, and manages the
// scheduled jobs.
type MaintenanceController struct {
	sweeper   MappingSweeper
	importer  LegacyImporter
	queue     TaskQueue
	events    EventRecorder
	settings  JobSettings
	scheduler JobScheduler
	legacyCfg config.Legacy
	batchSize int
}

// MaintenanceDeps groups the dependencies of MaintenanceController. Only
// Sweeper is required.
type MaintenanceDeps struct {
	Sweeper   MappingSweeper
	Importer  LegacyImporter
	Queue     TaskQueue
	Events    EventRecorder
	Settings  JobSettings
	Scheduler JobScheduler
	Legacy    config.Legacy
	BatchSize int
}

// NewMaintenanceController creates a new MaintenanceController.
func NewMaintenanceController(deps MaintenanceDeps) *MaintenanceController {
	batchSize := deps.BatchSize
	if batchSize < 1 {
		batchSize = links.DefaultSweepBatchSize
	}
	return &MaintenanceController{
		sweeper:   deps.Sweeper,
		importer:  deps.Importer,
		queue:     deps.Queue,
		events:    deps.Events,
		settings:  deps.Settings,
		scheduler: deps.Scheduler,
		legacyCfg: deps.Legacy,
		batchSize: batchSize,
	}
}

// SweepRequest is the optional body of POST /api/maintenance/sweep.
type SweepRequest struct {
	BatchSize int `json:"batchSize"`
}

// Sweep handles POST /api/maintenance/sweep
func (mc *MaintenanceController) Sweep(c *gin.Context) {
	var req SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = mc.batchSize
	}

	if mc.queue != nil {
		id, err := mc.queue.Enqueue(c.Request.Context(), tasks.SweepExpiredMappingsTask{
			BatchSize: batchSize,
			Actor:     actor(c),
		})
		if err != nil {
			respondInternalError(c, err, "enqueue sweep")
			return
		}
		respondAccepted(c, "sweep enqueued", gin.H{"task_id": id})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), maintenanceTimeout)
	defer cancel()

	result, err := mc.sweeper.Sweep(ctx, batchSize)
	if mc.events != nil {
		mc.events.LogSweep(actor(c), result.Deleted, result.Batches, result.Cutoff, err)
	}
	if err != nil {
		respondMappingError(c, err, "sweep expired mappings")
		return
	}
	respondSuccess(c, result)
}

// Import handles POST /api/maintenance/import. It always reads the Redis
// server configured with LEGACY_REDIS_ADDR.
func (mc *MaintenanceController) Import(c *gin.Context) {
	if mc.legacyCfg.RedisAddr == "" {
		respondBadRequest(c, "legacy redis address is not configured")
		return
	}
	if mc.importer == nil && mc.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "legacy import is not available")
		return
	}

	if mc.queue != nil {
		id, err := mc.queue.Enqueue(c.Request.Context(), tasks.ImportLegacyMappingsTask{Actor: actor(c)})
		if err != nil {
			respondInternalError(c, err, "enqueue import")
			return
		}
		respondAccepted(c, "import enqueued", gin.H{"task_id": id})
		return
	}

	src, err := legacy.Open(legacy.SourceSpec{}, mc.legacyCfg)
	if err != nil {
		respondInternalError(c, err, "open legacy source")
		return
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), maintenanceTimeout)
	defer cancel()

	result, err := mc.importer.Import(ctx, src)
	if result == nil {
		result = &legacy.ImportResult{Source: src.Name()}
	}
	if mc.events != nil {
		mc.events.LogImport(actor(c), src.Name(), result.Imported, result.Skipped, result.Failed, err)
	}
	if err != nil {
		respondInternalError(c, err, "legacy import")
		return
	}
	respondSuccess(c, result)
}

// JobInfo is a scheduled job with its live scheduler state.
type JobInfo struct {
	settingsstore.JobConfigInfo
	Scheduled bool `json:"scheduled"`
	Active    bool `json:"active"`
}

// ListJobs handles GET /api/maintenance/jobs
func (mc *MaintenanceController) ListJobs(c *gin.Context) {
	if mc.settings == nil {
		respondError(c, http.StatusServiceUnavailable, "job settings are not available")
		return
	}

	jobs := make([]JobInfo, 0, len(settingsstore.Jobs()))
	for _, name := range settingsstore.Jobs() {
		info, err := mc.jobInfo(name)
		if err != nil {
			respondInternalError(c, err, "load job settings")
			return
		}
		jobs = append(jobs, info)
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// UpdateJobRequest is the body of PUT /api/maintenance/jobs/:name. Reset
// drops all stored overrides before applying the other fields.
type UpdateJobRequest struct {
	Enabled  *bool   `json:"enabled"`
	Schedule *string `json:"schedule"`
	Reset    bool    `json:"reset"`
}

// UpdateJob handles PUT /api/maintenance/jobs/:name
func (mc *MaintenanceController) UpdateJob(c *gin.Context) {
	if mc.settings == nil {
		respondError(c, http.StatusServiceUnavailable, "job settings are not available")
		return
	}
	name, ok := mc.jobName(c)
	if !ok {
		return
	}

	var req UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.Schedule != nil {
		if err := settingsstore.ValidateCronSchedule(*req.Schedule); err != nil {
			respondBadRequest(c, "invalid schedule: "+err.Error())
			return
		}
	}
	if req.Reset {
		if err := mc.settings.ClearJobSettings(name); err != nil {
			respondInternalError(c, err, "reset job settings")
			return
		}
	}
	if req.Schedule != nil {
		if err := mc.settings.SetJobSchedule(name, *req.Schedule); err != nil {
			respondInternalError(c, err, "save job schedule")
			return
		}
	}
	if req.Enabled != nil {
		if err := mc.settings.SetJobEnabled(name, *req.Enabled); err != nil {
			respondInternalError(c, err, "save job enabled")
			return
		}
	}

	if mc.scheduler != nil {
		if err := mc.scheduler.Reschedule(); err != nil {
			respondInternalError(c, err, "reschedule jobs")
			return
		}
	}

	info, err := mc.jobInfo(name)
	if err != nil {
		respondInternalError(c, err, "load job settings")
		return
	}
	respondSuccess(c, info)
}

// RunJob handles POST /api/maintenance/jobs/:name/run
func (mc *MaintenanceController) RunJob(c *gin.Context) {
	if mc.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "scheduler is not available")
		return
	}
	name, ok := mc.jobName(c)
	if !ok {
		return
	}

	if err := mc.scheduler.RunNow(name); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrJobRunning):
			respondError(c, http.StatusConflict, err.Error())
		case errors.Is(err, scheduler.ErrJobNotRegistered):
			respondNotFound(c, "job")
		default:
			respondInternalError(c, err, "run job")
		}
		return
	}
	respondAccepted(c, "job started", gin.H{"job": name})
}

func (mc *MaintenanceController) jobName(c *gin.Context) (settingsstore.JobName, bool) {
	name, err := settingsstore.ParseJobName(c.Param("name"))
	if err != nil {
		respondNotFound(c, "job")
		return "", false
	}
	return name, true
}

func (mc *MaintenanceController) jobInfo(name settingsstore.JobName) (JobInfo, error) {
	cfg, err := mc.settings.GetJobConfigInfo(name)
	if err != nil {
		return JobInfo{}, err
	}
	info := JobInfo{JobConfigInfo: cfg}
	if mc.scheduler != nil {
		if next := mc.scheduler.GetNextRunTime(name); next != nil {
			info.NextRunAt = next
			info.Scheduled = true
		}
		info.Active = mc.scheduler.IsActive(name)
	}
	return info, nil
}
