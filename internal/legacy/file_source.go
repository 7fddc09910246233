package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

const filePageSize = 500

// FileSource reads a JSON export of the key/value store: one object whose
// keys are paths and whose values are mapping objects.
type FileSource struct {
	path    string
	keys    []string
	entries map[string]json.RawMessage
}

// NewFileSource loads and parses the export at path. Keys are visited in
// sorted order.
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy export: %w", err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse legacy export %s: %w", path, err)
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return &FileSource{path: path, keys: keys, entries: entries}, nil
}

func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Page returns up to filePageSize entries starting at the offset in cursor.
func (s *FileSource) Page(ctx context.Context, cursor string) ([]Entry, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil || start < 0 {
			return nil, "", fmt.Errorf("invalid file cursor %q", cursor)
		}
	}
	if start >= len(s.keys) {
		return []Entry{}, "", nil
	}

	end := min(start+filePageSize, len(s.keys))
	entries := make([]Entry, 0, end-start)
	for _, key := range s.keys[start:end] {
		raw := s.entries[key]
		if string(raw) == "null" {
			raw = nil
		}
		entries = append(entries, decodeValue(key, raw))
	}

	if end == len(s.keys) {
		return entries, "", nil
	}
	return entries, strconv.Itoa(end), nil
}

func (s *FileSource) Close() error {
	return nil
}
