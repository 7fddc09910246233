// Package links implements the short link lifecycle: validation, path
// reservation, pagination, expiry classification, resolution and the bulk
// expiry sweep.
//
// Storage is injected through the Store interface; the gorm backed
// implementation lives in internal/database/mappings.
package links

import (
	"context"
	"fmt"
	"time"

	"github.com/mrlokans/shortlinks/internal/entities"
)

// Store is the persistence contract used by Service. Implementations return
// ErrNotFound and ErrDuplicatePath for missing and conflicting paths.
type Store interface {
	Insert(ctx context.Context, m *entities.Mapping) error
	Get(ctx context.Context, path string) (*entities.Mapping, error)
	// Replace overwrites every column of the row at originalPath except
	// created_at, including the primary key, in one statement.
	Replace(ctx context.Context, originalPath string, m *entities.Mapping) error
	Delete(ctx context.Context, path string) error
	ListPage(ctx context.Context, exclude Exclusion, limit, offset int) ([]entities.Mapping, int64, error)
	// FindEnabledExpiringBefore returns enabled mappings with an expiry at or
	// before until, ordered by expiry ascending.
	FindEnabledExpiringBefore(ctx context.Context, until time.Time) ([]entities.Mapping, error)
	FindExpiredPaths(ctx context.Context, before time.Time, limit int) ([]string, error)
	DeletePaths(ctx context.Context, paths []string) (int64, error)
}

// MappingInput carries caller supplied fields for Create and Update.
// Omitted optional fields are stored as NULL: Update replaces the whole row.
type MappingInput struct {
	Path        string  `json:"path"`
	Target      string  `json:"target"`
	Name        *string `json:"name"`
	Expiry      *string `json:"expiry"`
	Enabled     *bool   `json:"enabled"`
	QRCodeData1 *string `json:"qrCodeData1"`
	QRCodeData2 *string `json:"qrCodeData2"`
	QROrder     *string `json:"qrOrder"`
}

// Service coordinates validation and storage of mappings.
type Service struct {
	store    Store
	now      func() time.Time
	location *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the time zone used for calendar day boundaries and for
// expiry values given without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService creates a mapping service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone used for day boundaries.
func (s *Service) Location() *time.Location {
	return s.location
}

// Create validates and inserts a new mapping.
func (s *Service) Create(ctx context.Context, in MappingInput) (*entities.Mapping, error) {
	m, err := s.buildMapping(in)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = s.now().UTC()

	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the mapping stored at path.
func (s *Service) Get(ctx context.Context, path string) (*entities.Mapping, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrValidation)
	}
	return s.store.Get(ctx, path)
}

// Update rewrites the mapping at originalPath with in, possibly renaming it.
// The row keeps its created_at.
func (s *Service) Update(ctx context.Context, originalPath string, in MappingInput) (*entities.Mapping, error) {
	if originalPath == "" {
		return nil, fmt.Errorf("%w: originalPath is required", ErrValidation)
	}
	m, err := s.buildMapping(in)
	if err != nil {
		return nil, err
	}

	if err := s.store.Replace(ctx, originalPath, m); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, m.Path)
}

// Delete removes the mapping at path. Deleting a missing path is not an error.
func (s *Service) Delete(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrValidation)
	}
	if IsReserved(path) {
		return fmt.Errorf("%w: %q", ErrReservedPath, path)
	}
	return s.store.Delete(ctx, path)
}

func (s *Service) buildMapping(in MappingInput) (*entities.Mapping, error) {
	if err := validatePath(in.Path); err != nil {
		return nil, err
	}
	if in.Target == "" {
		return nil, fmt.Errorf("%w: target is required", ErrValidation)
	}

	expiry, err := ParseExpiry(in.Expiry, s.location)
	if err != nil {
		return nil, err
	}
	order, err := ValidateQROrder(in.QROrder)
	if err != nil {
		return nil, err
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	if expiry != nil {
		utc := expiry.UTC()
		expiry = &utc
	}

	return &entities.Mapping{
		Path:        in.Path,
		Target:      in.Target,
		Name:        optionalString(in.Name),
		Expiry:      expiry,
		Enabled:     enabled,
		QRCodeData1: optionalString(in.QRCodeData1),
		QRCodeData2: optionalString(in.QRCodeData2),
		QROrder:     order,
	}, nil
}

// dayStart returns midnight of the calendar day containing t.
func (s *Service) dayStart(t time.Time) time.Time {
	y, m, d := t.In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}
