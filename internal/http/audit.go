package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/database/audit"
	"github.com/mrlokans/shortlinks/internal/entities"
)

type AuditController struct {
	events AuditReader
}

func NewAuditController(events AuditReader) *AuditController {
	return &AuditController{
		events: events,
	}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?page=&limit=&type=&path=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	filter := audit.Filter{
		EventType: entities.AuditEventType(c.Query("type")),
		Path:      c.Query("path"),
	}
	if filter.EventType != "" && !isEventType(filter.EventType) {
		respondBadRequest(c, "unknown event type: "+string(filter.EventType))
		return
	}
	offset := (page - 1) * limit

	events, total, err := ac.events.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}

func isEventType(t entities.AuditEventType) bool {
	switch t {
	case entities.AuditEventCreate, entities.AuditEventUpdate, entities.AuditEventDelete,
		entities.AuditEventSweep, entities.AuditEventImport, entities.AuditEventAuth:
		return true
	}
	return false
}
