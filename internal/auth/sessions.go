package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/shortlinks/internal/config"
)

// Session data keys
const (
	SessionKeyAuthenticated = "authenticated"
	SessionKeyLoginAt       = "login_at"
	SessionKeyClientIP      = "client_ip"
)

func init() {
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with admin session helpers.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a session manager persisting to the sessions
// table of sqlDB, the handle underlying GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession marks the session as authenticated after a successful
// password check. The token is renewed to prevent fixation.
func (sm *SessionManager) CreateSession(r *http.Request, clientIP string) error {
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyAuthenticated, true)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now().UTC())
	sm.Put(r.Context(), SessionKeyClientIP, clientIP)
	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// IsAuthenticated returns true if the request carries an admin session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetBool(r.Context(), SessionKeyAuthenticated)
}

// SessionData holds the session information for a request.
type SessionData struct {
	LoginAt  time.Time `json:"loginAt"`
	ClientIP string    `json:"clientIp"`
}

// GetSessionData returns the admin session, or nil when not logged in.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	if !sm.IsAuthenticated(r) {
		return nil
	}

	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)
	return &SessionData{
		LoginAt:  loginAt,
		ClientIP: sm.GetString(r.Context(), SessionKeyClientIP),
	}
}
