package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/config"
)

// ContextKeyAuthType is the gin context key holding the AuthType of a request.
const ContextKeyAuthType = "auth_type"

// AuthType indicates how the request was authenticated.
type AuthType string

const (
	AuthTypeAnonymous AuthType = "anonymous"
	AuthTypeNone      AuthType = "none" // AUTH_MODE=none, everyone is admin
	AuthTypeSession   AuthType = "session"
)

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/login"

// Middleware resolves the admin session of each request and guards admin
// routes.
type Middleware struct {
	sessionManager *SessionManager
	config         config.Auth
}

// NewMiddleware creates a new authentication middleware. sessionManager may be
// nil in AUTH_MODE=none.
func NewMiddleware(sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{
		sessionManager: sessionManager,
		config:         cfg,
	}
}

// Handler records the AuthType of every request. It never rejects: public
// routes such as link resolution pass through it too.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyAuthType, m.authType(c))
		c.Next()
	}
}

func (m *Middleware) authType(c *gin.Context) AuthType {
	if m.config.Mode == config.AuthModeNone {
		return AuthTypeNone
	}
	if m.sessionManager != nil && m.sessionManager.IsAuthenticated(c.Request) {
		return AuthTypeSession
	}
	return AuthTypeAnonymous
}

// RequireAdmin rejects requests without an admin session: API requests get a
// 401 JSON body, browsers are redirected to the login page.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextKeyAuthType); !exists {
			c.Set(ContextKeyAuthType, m.authType(c))
		}
		if IsAuthenticated(c) {
			c.Next()
			return
		}

		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.Path))
		c.Abort()
	}
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeAnonymous
}

// IsAuthenticated returns true if the request may use admin routes.
func IsAuthenticated(c *gin.Context) bool {
	switch GetAuthType(c) {
	case AuthTypeNone, AuthTypeSession:
		return true
	}
	return false
}
