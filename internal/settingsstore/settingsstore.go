// Package settingsstore resolves runtime settings for the scheduled jobs.
//
// Priority: database > environment (through config) > default. Values saved
// from the admin API land in the settings table and override the
// environment until cleared.
package settingsstore

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gorm.io/gorm"

	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/entities"
)

// Setting sources reported by the *Info accessors.
const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// Repository is the subset of settings.Repository the store needs.
type Repository interface {
	GetSetting(key string) (*entities.Setting, error)
	SetSetting(key, value string) error
	SetSettings(values map[string]string) error
	DeleteSetting(key string) error
}

type SettingsStore struct {
	repo Repository
	cfg  *config.Config
}

func New(repo Repository, cfg *config.Config) *SettingsStore {
	return &SettingsStore{repo: repo, cfg: cfg}
}

// lookup returns the database value for key. A missing row is not an error.
func (s *SettingsStore) lookup(key string) (string, bool, error) {
	setting, err := s.repo.GetSetting(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if setting.Value == "" {
		return "", false, nil
	}
	return setting.Value, true, nil
}

func (s *SettingsStore) resolveString(key, envName, configured string) (string, string, error) {
	value, ok, err := s.lookup(key)
	if err != nil {
		return "", "", err
	}
	if ok {
		return value, SourceDatabase, nil
	}
	return configured, envSource(envName), nil
}

func (s *SettingsStore) resolveBool(key, envName string, configured bool) (bool, string, error) {
	value, ok, err := s.lookup(key)
	if err != nil {
		return false, "", err
	}
	if ok {
		return parseBool(value), SourceDatabase, nil
	}
	return configured, envSource(envName), nil
}

func (s *SettingsStore) clear(keys ...string) error {
	for _, key := range keys {
		err := s.repo.DeleteSetting(key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

func envSource(name string) string {
	if os.Getenv(name) != "" {
		return SourceEnvironment
	}
	return SourceDefault
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
