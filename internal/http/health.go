package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// SchedulerState reports whether the cron loop is active.
type SchedulerState interface {
	IsRunning() bool
}

type HealthController struct {
	db        *database.Database
	scheduler SchedulerState
	tasks     bool
	version   string
}

// NewHealthController creates the health endpoint. db is pinged on every
// request; scheduler may be nil.
func NewHealthController(db *database.Database, version string, scheduler SchedulerState, tasksEnabled bool) *HealthController {
	return &HealthController{
		db:        db,
		scheduler: scheduler,
		tasks:     tasksEnabled,
		version:   version,
	}
}

// Status reports the health of the database. Scheduler and task queue
// state are informational and never make the service unhealthy.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	switch {
	case h.scheduler == nil:
		checks["scheduler"] = "not configured"
	case h.scheduler.IsRunning():
		checks["scheduler"] = "running"
	default:
		checks["scheduler"] = "idle"
	}

	if h.tasks {
		checks["tasks"] = "enabled"
	} else {
		checks["tasks"] = "disabled"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// Ping reports liveness and never touches storage.
func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
