package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/legacy"
)

// QueueImportLegacyMappings is the backlite queue name of ImportLegacyMappingsTask.
const QueueImportLegacyMappings = "import_legacy_mappings"

// LegacyImporter runs an import from an opened source. legacy.Importer
// satisfies it.
type LegacyImporter interface {
	Import(ctx context.Context, src legacy.Source) (*legacy.ImportResult, error)
}

// ImportRecorder records import outcomes. audit.Service satisfies it.
type ImportRecorder interface {
	LogImport(actor, source string, imported, skipped, failed int, err error)
}

// ImportLegacyMappingsTask copies mappings from the legacy key/value store.
type ImportLegacyMappingsTask struct {
	Source legacy.SourceSpec `json:"source"`
	Actor  string            `json:"actor"`
}

// Config returns the queue configuration for import tasks. Imports are not
// retried: a second run would report every key as a duplicate.
func (t ImportLegacyMappingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueImportLegacyMappings,
		MaxAttempts: 1,
		Timeout:     60 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportLegacyMappingsProcessor creates a processor function for ImportLegacyMappingsTask.
func ImportLegacyMappingsProcessor(importer LegacyImporter, cfg config.Legacy, recorder ImportRecorder) backlite.QueueProcessor[ImportLegacyMappingsTask] {
	return func(ctx context.Context, task ImportLegacyMappingsTask) error {
		if importer == nil {
			return fmt.Errorf("legacy importer not configured")
		}

		src, err := legacy.Open(task.Source, cfg)
		if err != nil {
			if recorder != nil {
				recorder.LogImport(task.Actor, "legacy", 0, 0, 0, err)
			}
			return fmt.Errorf("open legacy source: %w", err)
		}
		defer src.Close()

		result, err := importer.Import(ctx, src)
		if result == nil {
			result = &legacy.ImportResult{Source: src.Name()}
		}
		if recorder != nil {
			recorder.LogImport(task.Actor, src.Name(), result.Imported, result.Skipped, result.Failed, err)
		}
		if err != nil {
			return fmt.Errorf("import from %s: %w", src.Name(), err)
		}

		log.Printf("[TASK] Imported %d legacy mappings from %s (%d skipped, %d failed)",
			result.Imported, src.Name(), result.Skipped, result.Failed)
		return nil
	}
}

// NewImportLegacyMappingsQueue creates a backlite queue for import tasks.
func NewImportLegacyMappingsQueue(importer LegacyImporter, cfg config.Legacy, recorder ImportRecorder) backlite.Queue {
	return backlite.NewQueue(ImportLegacyMappingsProcessor(importer, cfg, recorder))
}
