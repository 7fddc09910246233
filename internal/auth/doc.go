// Package auth guards the admin surface of the redirector.
//
// It supports two modes:
//   - "password": a single shared admin password (default). The password is
//     bcrypt hashed at startup; a successful POST /api/login starts an scs
//     session stored in the SQLite sessions table.
//   - "none": no authentication, every request may use admin routes. Meant
//     for local development only.
//
// # Configuration
//
//	AUTH_MODE=password
//	ADMIN_PASSWORD=<at least 8 characters>
//	AUTH_SESSION_SECRET=<any string>   # CSRF key seed, random if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_SECURE_COOKIES=true           # set false for plain HTTP
//	AUTH_MAX_LOGIN_ATTEMPTS=5          # per client IP
//
// # Usage
//
//	svc, err := auth.NewService(cfg.Auth)
//	sm, err := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(sm, cfg.Auth)
//	router.Use(sm.SessionLoadSave(), mw.Handler())
//	admin := router.Group("/api", mw.RequireAdmin())
//
// Link resolution is public and never passes through RequireAdmin.
package auth
