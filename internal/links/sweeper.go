package links

import (
	"context"
	"fmt"
	"time"
)

// DefaultSweepBatchSize bounds a single delete statement of the sweep.
const DefaultSweepBatchSize = 100

// SweepResult summarises one sweep cycle.
type SweepResult struct {
	Deleted int64     `json:"deleted"`
	Batches int       `json:"batches"`
	Cutoff  time.Time `json:"cutoff"`
}

// Sweep deletes every mapping whose expiry instant lies before now, in
// batches of at most batchSize rows. Disabled mappings are swept as well.
// On a storage error the partial result is returned together with the error.
func (s *Service) Sweep(ctx context.Context, batchSize int) (SweepResult, error) {
	result := SweepResult{Cutoff: s.now()}
	if batchSize < 1 {
		return result, fmt.Errorf("%w: batch size must be at least 1", ErrValidation)
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		paths, err := s.store.FindExpiredPaths(ctx, result.Cutoff, batchSize)
		if err != nil {
			return result, fmt.Errorf("failed to find expired mappings: %w", err)
		}
		if len(paths) == 0 {
			return result, nil
		}

		deleted, err := s.store.DeletePaths(ctx, paths)
		if err != nil {
			return result, fmt.Errorf("failed to delete expired mappings: %w", err)
		}
		result.Deleted += deleted
		result.Batches++

		if len(paths) < batchSize {
			return result, nil
		}
	}
}
