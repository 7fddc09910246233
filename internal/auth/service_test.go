package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/shortlinks/internal/config"
)

func testAuthConfig(mode config.AuthMode) config.Auth {
	return config.Auth{
		Mode:          mode,
		AdminPassword: "correct-horse-battery",
		BcryptCost:    bcrypt.MinCost,
	}
}

func TestNewService_HashesPassword(t *testing.T) {
	svc, err := NewService(testAuthConfig(config.AuthModePassword))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if !svc.IsAuthEnabled() {
		t.Error("password mode should enable auth")
	}
	if svc.passwordHash == "" || svc.passwordHash == "correct-horse-battery" {
		t.Error("password must be stored only as a hash")
	}
}

func TestNewService_RejectsShortPassword(t *testing.T) {
	cfg := testAuthConfig(config.AuthModePassword)
	cfg.AdminPassword = "short"

	_, err := NewService(cfg)
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestNewService_InvalidCostFallsBack(t *testing.T) {
	cfg := testAuthConfig(config.AuthModePassword)
	cfg.BcryptCost = 0

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(svc.passwordHash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, err := NewService(testAuthConfig(config.AuthModePassword))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"correct", "correct-horse-battery", nil},
		{"wrong", "wrong-horse-battery", ErrInvalidPassword},
		{"empty", "", ErrInvalidPassword},
		{"oversized", strings.Repeat("x", 100), ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Authenticate(tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_NoneMode(t *testing.T) {
	cfg := testAuthConfig(config.AuthModeNone)
	cfg.AdminPassword = ""

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc.IsAuthEnabled() {
		t.Error("none mode should disable auth")
	}
	if err := svc.Authenticate("anything"); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("expected ErrAuthDisabled, got %v", err)
	}
}
