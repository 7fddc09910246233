package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/links"
)

// DefaultPageSize applies when no page size is configured.
const DefaultPageSize = 10

const requestTimeout = 10 * time.Second

// MappingsController serves the admin mapping API.
type MappingsController struct {
	store       MappingStore
	classifier  ExpiryClassifier
	events      EventRecorder
	pageSize    int
	maxPageSize int
}

// NewMappingsController creates the controller. events may be nil. pageSize
// applies when a request carries no valid pageSize; larger requests are
// capped at maxPageSize.
func NewMappingsController(store MappingStore, classifier ExpiryClassifier, events EventRecorder, pageSize, maxPageSize int) *MappingsController {
	if maxPageSize < 1 {
		maxPageSize = 100
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &MappingsController{
		store:       store,
		classifier:  classifier,
		events:      events,
		pageSize:    min(pageSize, maxPageSize),
		maxPageSize: maxPageSize,
	}
}

// UpdateMappingRequest is the body of PUT /api/mapping.
type UpdateMappingRequest struct {
	OriginalPath string `json:"originalPath"`
	links.MappingInput
}

// DeleteMappingRequest is the body of DELETE /api/mapping.
type DeleteMappingRequest struct {
	Path string `json:"path"`
}

// ListMappings handles GET /api/mappings?page=&pageSize=
func (mc *MappingsController) ListMappings(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := min(queryInt(c, "pageSize", mc.pageSize), mc.maxPageSize)

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := mc.store.ListPage(ctx, page, pageSize)
	if err != nil {
		respondMappingError(c, err, "list mappings")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMapping handles GET /api/mapping?path=
func (mc *MappingsController) GetMapping(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondBadRequest(c, "missing path parameter")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	mapping, err := mc.store.Get(ctx, path)
	if err != nil {
		respondMappingError(c, err, "get mapping")
		return
	}
	c.JSON(http.StatusOK, mapping)
}

// CreateMapping handles POST /api/mapping
func (mc *MappingsController) CreateMapping(c *gin.Context) {
	var req links.MappingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	mapping, err := mc.store.Create(ctx, req)
	mc.record(c, entities.AuditEventCreate, req.Path, fmt.Sprintf("Created %s -> %s", req.Path, req.Target), err)
	if err != nil {
		respondMappingError(c, err, "create mapping")
		return
	}
	respondCreated(c, mapping)
}

// UpdateMapping handles PUT /api/mapping. The row at originalPath is
// replaced as a whole and may be renamed to path.
func (mc *MappingsController) UpdateMapping(c *gin.Context) {
	var req UpdateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	mapping, err := mc.store.Update(ctx, req.OriginalPath, req.MappingInput)
	description := fmt.Sprintf("Updated %s -> %s", req.OriginalPath, req.Target)
	if req.OriginalPath != req.Path {
		description = fmt.Sprintf("Renamed %s to %s -> %s", req.OriginalPath, req.Path, req.Target)
	}
	mc.record(c, entities.AuditEventUpdate, req.Path, description, err)
	if err != nil {
		respondMappingError(c, err, "update mapping")
		return
	}
	respondSuccess(c, mapping)
}

// DeleteMapping handles DELETE /api/mapping with a {"path"} body or a path
// query parameter. Deleting a missing mapping succeeds.
func (mc *MappingsController) DeleteMapping(c *gin.Context) {
	var req DeleteMappingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}
	if req.Path == "" {
		req.Path = c.Query("path")
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	err := mc.store.Delete(ctx, req.Path)
	mc.record(c, entities.AuditEventDelete, req.Path, "Deleted "+req.Path, err)
	if err != nil {
		respondMappingError(c, err, "delete mapping")
		return
	}
	respondSuccess(c, nil)
}

// ExpiringMappings handles GET /api/expiring-mappings
func (mc *MappingsController) ExpiringMappings(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	report, err := mc.classifier.Classify(ctx)
	if err != nil {
		respondInternalError(c, err, "classify mappings")
		return
	}
	c.JSON(http.StatusOK, report)
}

// record writes an audit event unless the request was rejected as invalid.
func (mc *MappingsController) record(c *gin.Context, eventType entities.AuditEventType, path, description string, err error) {
	if mc.events == nil || links.IsClientError(err) {
		return
	}
	mc.events.LogMapping(eventType, path, actor(c), description, err)
}
