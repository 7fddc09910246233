package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/links"
)

// Classifier builds expiry reports. links.Service satisfies it.
type Classifier interface {
	Classify(ctx context.Context) (*links.ExpiryReport, error)
}

// Sweeper deletes expired mappings. links.Service satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context, batchSize int) (links.SweepResult, error)
}

// SweepRecorder records sweep outcomes. audit.Service satisfies it.
type SweepRecorder interface {
	LogSweep(actor string, deleted int64, batches int, cutoff time.Time, err error)
}

// Snapshotter persists report snapshots. audit.Auditor satisfies it.
type Snapshotter interface {
	SaveJSON(kind string, data any) (string, error)
}

// ReportEntry is the loggable part of a mapping; inline QR images are left out.
type ReportEntry struct {
	Path    string    `json:"path"`
	Target  string    `json:"target"`
	Name    *string   `json:"name,omitempty"`
	Expiry  time.Time `json:"expiry"`
	Enabled bool      `json:"enabled"`
}

// ReportSummary is an ExpiryReport reduced to what is logged.
type ReportSummary struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	DayStart    time.Time     `json:"dayStart"`
	HorizonEnd  time.Time     `json:"horizonEnd"`
	Expired     []ReportEntry `json:"expired"`
	Expiring    []ReportEntry `json:"expiring"`
}

// Summarize converts report for logging.
func Summarize(report *links.ExpiryReport) ReportSummary {
	return ReportSummary{
		GeneratedAt: report.GeneratedAt,
		DayStart:    report.DayStart,
		HorizonEnd:  report.HorizonEnd,
		Expired:     reportEntries(report.Expired),
		Expiring:    reportEntries(report.Expiring),
	}
}

func reportEntries(ms []entities.Mapping) []ReportEntry {
	out := make([]ReportEntry, 0, len(ms))
	for _, m := range ms {
		entry := ReportEntry{Path: m.Path, Target: m.Target, Name: m.Name, Enabled: m.Enabled}
		if m.Expiry != nil {
			entry.Expiry = *m.Expiry
		}
		out = append(out, entry)
	}
	return out
}

// ExpiryReportJob classifies mappings and logs the counts followed by the
// details of every expired and expiring mapping. Non-empty reports are also
// written as a snapshot when snapshots is set.
func ExpiryReportJob(classifier Classifier, snapshots Snapshotter) Job {
	return func(ctx context.Context) (string, error) {
		report, err := classifier.Classify(ctx)
		if err != nil {
			return "", fmt.Errorf("classify mappings: %w", err)
		}

		summary := Summarize(report)
		message := fmt.Sprintf("%d expired, %d expiring within %d days",
			len(summary.Expired), len(summary.Expiring), links.ExpiryHorizonDays)
		log.Printf("Expiry report: %s", message)

		if len(summary.Expired) == 0 && len(summary.Expiring) == 0 {
			return message, nil
		}

		details, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode expiry report: %w", err)
		}
		log.Printf("Expiry report details:\n%s", details)

		if snapshots != nil {
			if file, err := snapshots.SaveJSON("expiry-report", summary); err != nil {
				log.Printf("Expiry report: warning - failed to save snapshot: %v", err)
			} else {
				message += " (" + file + ")"
			}
		}
		return message, nil
	}
}

// SweepJob runs the expired mapping sweep with batchSize rows per batch.
func SweepJob(sweeper Sweeper, recorder SweepRecorder, batchSize int) Job {
	if batchSize < 1 {
		batchSize = links.DefaultSweepBatchSize
	}
	return func(ctx context.Context) (string, error) {
		result, err := sweeper.Sweep(ctx, batchSize)
		if recorder != nil {
			recorder.LogSweep(entities.AuditActorScheduler, result.Deleted, result.Batches, result.Cutoff, err)
		}
		if err != nil {
			return "", fmt.Errorf("sweep expired mappings (deleted %d before failing): %w", result.Deleted, err)
		}
		return fmt.Sprintf("Deleted %d expired mappings in %d batches", result.Deleted, result.Batches), nil
	}
}
