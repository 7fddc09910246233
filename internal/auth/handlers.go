package auth

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shortlinks/internal/config"
)

// Audit actions recorded by the controller.
const (
	AuditActionLogin       = "login"
	AuditActionLoginFailed = "login_failed"
	AuditActionLogout      = "logout"
)

// EventLogger receives authentication events. internal/audit.Service
// satisfies it.
type EventLogger interface {
	LogAuth(action, ipAddr, userAgent string, success bool)
}

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs (//evil.com).
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/admin".
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/admin"
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

// AuthController serves the login page and the session endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	templates      *template.Template
	config         config.Auth
	rateLimiter    *RateLimiter
	events         EventLogger
}

// NewAuthController creates the controller. templates may be nil, in which
// case the login page is rendered as JSON. events may be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, templates *template.Template, cfg config.Auth, events EventLogger) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		templates:      templates,
		config:         cfg,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
		events: events,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET(LoginPath, ac.LoginPage)
	router.POST("/api/login", ac.rateLimiter.RateLimitMiddleware(), ac.Login)
	router.POST("/api/logout", ac.Logout)
	router.GET("/api/csrf", ac.CSRFToken)
	router.GET("/api/session", ac.Session)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	next := sanitizeRedirectPath(c.Query("next"))
	if !ac.service.IsAuthEnabled() || (ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request)) {
		c.Redirect(http.StatusFound, next)
		return
	}

	ac.renderTemplate(c, "login.html", gin.H{
		"Title":     "Login",
		"Next":      next,
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Login checks the admin password and starts a session.
func (ac *AuthController) Login(c *gin.Context) {
	if !ac.service.IsAuthEnabled() {
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "mode": ac.config.Mode})
		return
	}

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	clientIP := c.ClientIP()

	if err := ac.service.Authenticate(req.Password); err != nil {
		locked, retryAfter := ac.rateLimiter.RecordFailure(clientIP)
		ac.logEvent(c, AuditActionLoginFailed, false)
		if !errors.Is(err, ErrInvalidPassword) {
			log.Printf("Login: password check failed: %v", err)
		}
		if locked {
			log.Printf("Login: %s locked out for %s", clientIP, retryAfter)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP)

	if ac.sessionManager == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions are not configured"})
		return
	}
	if err := ac.sessionManager.CreateSession(c.Request, clientIP); err != nil {
		log.Printf("Login: failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	ac.logEvent(c, AuditActionLogin, true)

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"next":          sanitizeRedirectPath(req.Next),
	})
}

// Logout destroys the session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil && ac.sessionManager.IsAuthenticated(c.Request) {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			log.Printf("Logout: failed to destroy session: %v", err)
		}
		ac.logEvent(c, AuditActionLogout, true)
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

// CSRFToken returns the token the admin client must echo in X-CSRF-Token.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	token := GetCSRFToken(c)
	c.Header(CSRFTokenHeader, token)
	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}

// Session reports whether the caller holds an admin session.
func (ac *AuthController) Session(c *gin.Context) {
	resp := gin.H{
		"mode":          ac.config.Mode,
		"authenticated": IsAuthenticated(c),
	}
	if ac.sessionManager != nil {
		if data := ac.sessionManager.GetSessionData(c.Request); data != nil {
			resp["session"] = data
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (ac *AuthController) logEvent(c *gin.Context, action string, success bool) {
	if ac.events == nil {
		return
	}
	ac.events.LogAuth(action, c.ClientIP(), c.Request.UserAgent(), success)
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}
