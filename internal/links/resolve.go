package links

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/shortlinks/internal/entities"
)

// ResolutionStatus is the outcome of visiting a short path.
type ResolutionStatus string

const (
	ResolutionActive  ResolutionStatus = "active"
	ResolutionExpired ResolutionStatus = "expired"
)

// Resolution is what a visitor of a short path gets to see.
type Resolution struct {
	Status  ResolutionStatus
	Mapping *entities.Mapping
	QRCodes []QRCode
}

// Resolve looks up path for a public visit. Missing, reserved and disabled
// mappings all yield ErrNotFound. A mapping whose expiry falls before today
// resolves as expired; one expiring today stays active until midnight.
func (s *Service) Resolve(ctx context.Context, path string) (*Resolution, error) {
	if path == "" || IsReserved(path) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}

	m, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !m.Enabled {
		return nil, fmt.Errorf("%w: %q is disabled", ErrNotFound, path)
	}

	if m.Expiry != nil && m.Expiry.Before(s.dayStart(s.now())) {
		return &Resolution{Status: ResolutionExpired, Mapping: m}, nil
	}
	return &Resolution{
		Status:  ResolutionActive,
		Mapping: m,
		QRCodes: OrderedQRCodes(m),
	}, nil
}

// IsNotFound reports whether err means the mapping does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
