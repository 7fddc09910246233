package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/shortlinks/internal/config"
)

var ErrAuthDisabled = errors.New("authentication is disabled")

// Service checks the shared admin password. The plaintext is hashed once at
// construction and never kept.
type Service struct {
	config       config.Auth
	passwordHash string
}

// NewService hashes the configured admin password. In AUTH_MODE=none no
// password is needed and Authenticate always fails with ErrAuthDisabled.
func NewService(cfg config.Auth) (*Service, error) {
	s := &Service{config: cfg}
	if cfg.Mode == config.AuthModeNone {
		return s, nil
	}

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := HashPassword(cfg.AdminPassword, cost)
	if err != nil {
		return nil, fmt.Errorf("admin password: %w", err)
	}
	s.passwordHash = hash
	return s, nil
}

// IsAuthEnabled reports whether admin routes require a session.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode != config.AuthModeNone
}

// Authenticate verifies password against the admin password hash.
func (s *Service) Authenticate(password string) error {
	if !s.IsAuthEnabled() {
		return ErrAuthDisabled
	}
	if password == "" || len(password) > maxPasswordLength {
		return ErrInvalidPassword
	}
	return CheckPassword(password, s.passwordHash)
}
