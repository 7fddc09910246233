package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shortlinks/internal/links"
)

// QueueSweepExpiredMappings is the backlite queue name of SweepExpiredMappingsTask.
const QueueSweepExpiredMappings = "sweep_expired_mappings"

// Sweeper deletes expired mappings. links.Service satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context, batchSize int) (links.SweepResult, error)
}

// SweepRecorder records sweep outcomes. audit.Service satisfies it.
type SweepRecorder interface {
	LogSweep(actor string, deleted int64, batches int, cutoff time.Time, err error)
}

// SweepExpiredMappingsTask deletes every mapping whose expiry has passed.
type SweepExpiredMappingsTask struct {
	BatchSize int    `json:"batch_size"`
	Actor     string `json:"actor"`
}

// Config returns the queue configuration for sweep tasks. A failed sweep is
// not retried: the next scheduled run picks up what is left.
func (t SweepExpiredMappingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueSweepExpiredMappings,
		MaxAttempts: 1,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepExpiredMappingsProcessor creates a processor function for SweepExpiredMappingsTask.
func SweepExpiredMappingsProcessor(sweeper Sweeper, recorder SweepRecorder) backlite.QueueProcessor[SweepExpiredMappingsTask] {
	return func(ctx context.Context, task SweepExpiredMappingsTask) error {
		if sweeper == nil {
			return fmt.Errorf("sweeper not configured")
		}

		batchSize := task.BatchSize
		if batchSize <= 0 {
			batchSize = links.DefaultSweepBatchSize
		}

		result, err := sweeper.Sweep(ctx, batchSize)
		if recorder != nil {
			recorder.LogSweep(task.Actor, result.Deleted, result.Batches, result.Cutoff, err)
		}
		if err != nil {
			return fmt.Errorf("sweep expired mappings (deleted %d before failing): %w", result.Deleted, err)
		}

		log.Printf("[TASK] Swept %d expired mappings in %d batches (cutoff %s)",
			result.Deleted, result.Batches, result.Cutoff.Format(time.RFC3339))
		return nil
	}
}

// NewSweepExpiredMappingsQueue creates a backlite queue for sweep tasks.
func NewSweepExpiredMappingsQueue(sweeper Sweeper, recorder SweepRecorder) backlite.Queue {
	return backlite.NewQueue(SweepExpiredMappingsProcessor(sweeper, recorder))
}
