package links

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mrlokans/shortlinks/internal/entities"
)

// memStore is an in-memory Store used by the service tests.
type memStore struct {
	mu   sync.Mutex
	rows map[string]entities.Mapping

	findErr    error
	deleteErr  error
	failAfter  int
	deleteRuns int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]entities.Mapping)}
}

func (s *memStore) Insert(_ context.Context, m *entities.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[m.Path]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicatePath, m.Path)
	}
	s.rows[m.Path] = *m
	return nil
}

func (s *memStore) Get(_ context.Context, path string) (*entities.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return &m, nil
}

func (s *memStore) Replace(_ context.Context, originalPath string, m *entities.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[originalPath]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, originalPath)
	}
	if _, taken := s.rows[m.Path]; taken && m.Path != originalPath {
		return fmt.Errorf("%w: %q", ErrDuplicatePath, m.Path)
	}
	updated := *m
	updated.CreatedAt = existing.CreatedAt
	delete(s.rows, originalPath)
	s.rows[m.Path] = updated
	return nil
}

func (s *memStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, path)
	return nil
}

func (s *memStore) ListPage(_ context.Context, exclude Exclusion, limit, offset int) ([]entities.Mapping, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []entities.Mapping
	for _, m := range s.rows {
		if !exclude.Excludes(m.Path) {
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Path < all[j].Path
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []entities.Mapping{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *memStore) FindEnabledExpiringBefore(_ context.Context, until time.Time) ([]entities.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []entities.Mapping
	for _, m := range s.rows {
		if m.Enabled && m.Expiry != nil && !m.Expiry.After(until) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Expiry.Before(*out[j].Expiry) })
	return out, nil
}

func (s *memStore) FindExpiredPaths(_ context.Context, before time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var paths []string
	for _, m := range s.rows {
		if m.Expiry != nil && m.Expiry.Before(before) {
			paths = append(paths, m.Path)
		}
	}
	sort.Strings(paths)
	if len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, nil
}

func (s *memStore) DeletePaths(_ context.Context, paths []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteRuns++
	if s.deleteErr != nil && s.deleteRuns > s.failAfter {
		return 0, s.deleteErr
	}
	var n int64
	for _, p := range paths {
		if _, ok := s.rows[p]; ok {
			delete(s.rows, p)
			n++
		}
	}
	return n, nil
}

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func entityFor(path string) entities.Mapping {
	return entities.Mapping{
		Path:      path,
		Target:    "https://example.com/" + path,
		Enabled:   true,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
