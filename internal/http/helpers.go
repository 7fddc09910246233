package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/auth"
	"github.com/mrlokans/shortlinks/internal/links"
)

// Machine-readable error codes.
const (
	CodeValidation = "validation_error"
	CodeReserved   = "reserved_path"
	CodeDuplicate  = "duplicate_path"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal_error"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeValidation})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: CodeNotFound})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondMappingError maps a links error kind onto its HTTP status:
// caller mistakes are 400, a taken path 409, a missing mapping 404 and
// everything else 500.
func respondMappingError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, links.ErrReservedPath):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeReserved})
	case links.IsClientError(err):
		respondBadRequest(c, err.Error())
	case errors.Is(err, links.ErrDuplicatePath):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: CodeDuplicate})
	case links.IsNotFound(err):
		respondNotFound(c, "mapping")
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with optional data.
func respondSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Success: true, Message: message, Data: data})
}

// --- Parameter Parsing ---

// queryInt parses a positive integer query parameter, falling back to def
// when it is missing, malformed or below 1.
func queryInt(c *gin.Context, name string, def int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value < 1 {
		return def
	}
	return value
}

// actor identifies who triggered an admin action in the audit trail.
func actor(c *gin.Context) string {
	if auth.GetAuthType(c) == auth.AuthTypeNone {
		return "admin"
	}
	return c.ClientIP()
}
