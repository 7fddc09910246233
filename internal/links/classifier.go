package links

import (
	"context"
	"fmt"
	"time"

	"github.com/mrlokans/shortlinks/internal/entities"
)

// ExpiryHorizonDays is how many days past today count as "expiring soon".
const ExpiryHorizonDays = 3

// ExpiryReport splits enabled mappings with an expiry into those already past
// their expiry day and those expiring within the horizon.
type ExpiryReport struct {
	Expired     []entities.Mapping `json:"expired"`
	Expiring    []entities.Mapping `json:"expiring"`
	DayStart    time.Time          `json:"dayStart"`
	HorizonEnd  time.Time          `json:"horizonEnd"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// Classify builds an ExpiryReport for the current day.
func (s *Service) Classify(ctx context.Context) (*ExpiryReport, error) {
	now := s.now()
	start := s.dayStart(now)
	end := horizonEnd(start)

	candidates, err := s.store.FindEnabledExpiringBefore(ctx, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load expiring mappings: %w", err)
	}

	report := ClassifyMappings(candidates, start, end)
	report.GeneratedAt = now
	return report, nil
}

// ClassifyMappings partitions ms by the given cutoffs. Disabled mappings and
// mappings without expiry are ignored, as are those past end. Input order is
// preserved in both buckets.
func ClassifyMappings(ms []entities.Mapping, start, end time.Time) *ExpiryReport {
	report := &ExpiryReport{
		Expired:    []entities.Mapping{},
		Expiring:   []entities.Mapping{},
		DayStart:   start,
		HorizonEnd: end,
	}
	for _, m := range ms {
		if !m.Enabled || m.Expiry == nil {
			continue
		}
		switch {
		case m.Expiry.Before(start):
			report.Expired = append(report.Expired, m)
		case !m.Expiry.After(end):
			report.Expiring = append(report.Expiring, m)
		}
	}
	return report
}

// horizonEnd is the last instant of the day ExpiryHorizonDays after start.
func horizonEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, ExpiryHorizonDays+1).Add(-time.Nanosecond)
}
