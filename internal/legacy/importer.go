package legacy

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/links"
)

const (
	// maxReportedErrors caps ImportResult.Errors; Failed still counts every one.
	maxReportedErrors = 100
	// maxSnapshotEntries caps how many entries are held for the snapshot.
	maxSnapshotEntries = 10000
)

// Creator creates mappings. links.Service satisfies it.
type Creator interface {
	Create(ctx context.Context, in links.MappingInput) (*entities.Mapping, error)
}

// Snapshotter stores a copy of the imported entries. audit.Auditor
// satisfies it.
type Snapshotter interface {
	SaveJSON(kind string, data any) (string, error)
}

// ItemError describes one entry that could not be imported.
type ItemError struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// ImportResult summarises an import run.
type ImportResult struct {
	Source       string      `json:"source"`
	Imported     int         `json:"imported"`
	Skipped      int         `json:"skipped"`
	Failed       int         `json:"failed"`
	Errors       []ItemError `json:"errors"`
	SnapshotPath string      `json:"snapshot_path,omitempty"`
	// SnapshotTruncated is set when the snapshot holds only the first
	// entries of a large source.
	SnapshotTruncated bool `json:"snapshot_truncated,omitempty"`
}

// Importer copies legacy entries into the mapping store.
type Importer struct {
	creator       Creator
	snapshot      Snapshotter
	snapshotLimit int
}

// NewImporter creates an importer. snapshot may be nil.
func NewImporter(creator Creator, snapshot Snapshotter) *Importer {
	return &Importer{creator: creator, snapshot: snapshot, snapshotLimit: maxSnapshotEntries}
}

// Import walks src to the end. Reserved keys, empty values and paths that
// already exist are skipped, so a repeated import changes nothing. Entries
// that fail validation are logged and counted as failed without stopping the
// run. Only source errors and cancellation abort, in which case the partial
// result is returned with the error.
//
// The snapshot holds at most the first snapshotLimit entries read.
func (i *Importer) Import(ctx context.Context, src Source) (*ImportResult, error) {
	result := &ImportResult{Source: src.Name(), Errors: []ItemError{}}
	var seen []Entry

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		entries, next, err := src.Page(ctx, cursor)
		if err != nil {
			return result, fmt.Errorf("read %s: %w", src.Name(), err)
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if i.snapshot != nil {
				if len(seen) < i.snapshotLimit {
					seen = append(seen, entry)
				} else {
					result.SnapshotTruncated = true
				}
			}
			i.importEntry(ctx, entry, result)
		}

		if next == "" {
			break
		}
		cursor = next
	}

	if i.snapshot != nil && len(seen) > 0 {
		path, err := i.snapshot.SaveJSON("legacy-import", seen)
		if err != nil {
			log.Printf("Legacy import: failed to save snapshot: %v", err)
		} else {
			result.SnapshotPath = path
		}
	}

	log.Printf("Legacy import from %s: %d imported, %d skipped, %d failed",
		result.Source, result.Imported, result.Skipped, result.Failed)
	return result, nil
}

func (i *Importer) importEntry(ctx context.Context, entry Entry, result *ImportResult) {
	switch {
	case links.IsReserved(entry.Key):
		result.Skipped++
		return
	case entry.Err != nil:
		i.fail(result, entry.Key, entry.Err)
		return
	case entry.Value == nil:
		result.Skipped++
		return
	}

	_, err := i.creator.Create(ctx, links.MappingInput{
		Path:    entry.Key,
		Target:  entry.Value.Target,
		Name:    entry.Value.Name,
		Expiry:  entry.Value.Expiry,
		Enabled: entry.Value.Enabled,
	})
	if errors.Is(err, links.ErrDuplicatePath) {
		log.Printf("Legacy import: %s already exists, skipped", entry.Key)
		result.Skipped++
		return
	}
	if err != nil {
		i.fail(result, entry.Key, err)
		return
	}
	result.Imported++
}

func (i *Importer) fail(result *ImportResult, key string, err error) {
	result.Failed++
	log.Printf("Legacy import: failed to migrate %s: %v", key, err)
	if len(result.Errors) < maxReportedErrors {
		result.Errors = append(result.Errors, ItemError{Key: key, Error: err.Error()})
	}
}
