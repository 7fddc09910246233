package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone     AuthMode = "none"     // No authentication required (local development)
	AuthModePassword AuthMode = "password" // Single shared admin password with sessions (default)
)

type (
	Config struct {
		HTTP
		Global
		Database
		Links
		ExpiryReport
		Sweep
		Audit
		Tasks
		Auth
		Legacy
	}

	HTTP struct {
		Port              int32
		Host              string
		TrustProxyHeaders bool // Honour X-Forwarded-For / X-Real-IP from a reverse proxy
		Compress          bool // gzip responses
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Links struct {
		Timezone        string // IANA zone used for calendar day boundaries
		DefaultPageSize int
		MaxPageSize     int
		QRCodeSize      int // Pixel size of the generated target QR code
	}
	ExpiryReport struct {
		Enabled  bool
		Schedule string // Cron format: "0 8 * * *" = daily at 08:00
	}
	Sweep struct {
		Enabled   bool
		Schedule  string // Cron format: "30 3 * * *" = daily at 03:30
		BatchSize int
	}
	Audit struct {
		Dir           string // Directory for JSON snapshots of bulk operations
		RetentionDays int    // Days to keep audit events (default: 90)
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Auth struct {
		Mode            AuthMode
		AdminPassword   string
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Legacy struct {
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		RedisPrefix   string // Only keys with this prefix are imported; it is stripped from the path
		ScanCount     int64  // SCAN page size hint
	}
)

var ErrAdminPasswordRequired = errors.New("ADMIN_PASSWORD is required when AUTH_MODE=password")

// loadEnvFile loads variables from a dotenv file without overriding the
// environment. A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("Warning: failed to load %s: %v", path, err)
	}
}

func NewConfig() *Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	loadEnvFile(envFile)

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("trust_proxy_headers", false)
	v.SetDefault("http_compress", true)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("timezone", "Local")
	v.SetDefault("pagination_default_page_size", 10)
	v.SetDefault("pagination_max_page_size", 100)
	v.SetDefault("qr_code_size", 256)

	v.SetDefault("expiry_report_enabled", true)
	v.SetDefault("expiry_report_schedule", "0 8 * * *") // Daily at 08:00
	v.SetDefault("sweep_enabled", false)
	v.SetDefault("sweep_schedule", "30 3 * * *") // Daily at 03:30
	v.SetDefault("sweep_batch_size", 100)

	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 90)

	// Auth defaults
	v.SetDefault("auth_mode", "password")
	v.SetDefault("admin_password", "")
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Legacy key/value import
	v.SetDefault("legacy_redis_addr", "")
	v.SetDefault("legacy_redis_db", 0)
	v.SetDefault("legacy_redis_prefix", "")
	v.SetDefault("legacy_redis_scan_count", 100)

	return &Config{
		HTTP: HTTP{
			Port:              v.GetInt32("PORT"),
			Host:              v.GetString("HOST"),
			TrustProxyHeaders: v.GetBool("TRUST_PROXY_HEADERS"),
			Compress:          v.GetBool("HTTP_COMPRESS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Links: Links{
			Timezone:        v.GetString("TIMEZONE"),
			DefaultPageSize: v.GetInt("PAGINATION_DEFAULT_PAGE_SIZE"),
			MaxPageSize:     v.GetInt("PAGINATION_MAX_PAGE_SIZE"),
			QRCodeSize:      v.GetInt("QR_CODE_SIZE"),
		},
		ExpiryReport: ExpiryReport{
			Enabled:  v.GetBool("EXPIRY_REPORT_ENABLED"),
			Schedule: v.GetString("EXPIRY_REPORT_SCHEDULE"),
		},
		Sweep: Sweep{
			Enabled:   v.GetBool("SWEEP_ENABLED"),
			Schedule:  v.GetString("SWEEP_SCHEDULE"),
			BatchSize: v.GetInt("SWEEP_BATCH_SIZE"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			AdminPassword:    v.GetString("ADMIN_PASSWORD"),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Legacy: Legacy{
			RedisAddr:     v.GetString("LEGACY_REDIS_ADDR"),
			RedisPassword: v.GetString("LEGACY_REDIS_PASSWORD"),
			RedisDB:       v.GetInt("LEGACY_REDIS_DB"),
			RedisPrefix:   v.GetString("LEGACY_REDIS_PREFIX"),
			ScanCount:     v.GetInt64("LEGACY_REDIS_SCAN_COUNT"),
		},
	}
}

// Location resolves the configured time zone. "Local" and "" mean the
// process time zone.
func (l Links) Location() (*time.Location, error) {
	if l.Timezone == "" || l.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", l.Timezone, err)
	}
	return loc, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeNone:
	case AuthModePassword:
		if c.Auth.AdminPassword == "" {
			return ErrAdminPasswordRequired
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE %q: must be %q or %q", c.Auth.Mode, AuthModePassword, AuthModeNone)
	}
	if _, err := c.Links.Location(); err != nil {
		return err
	}
	if c.Sweep.BatchSize < 1 {
		return fmt.Errorf("invalid SWEEP_BATCH_SIZE %d: must be at least 1", c.Sweep.BatchSize)
	}
	if c.Links.MaxPageSize < 1 {
		return fmt.Errorf("invalid PAGINATION_MAX_PAGE_SIZE %d: must be at least 1", c.Links.MaxPageSize)
	}
	return nil
}
