// Package legacy imports mappings from the key/value store used before the
// SQL schema. Each key is a short path and each value a JSON object:
//
//	{"target": "https://...", "name": "...", "expiry": "2025-01-01", "enabled": true}
//
// Sources enumerate keys page by page; Importer feeds every entry through the
// mapping service so the usual validation applies.
package legacy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mrlokans/shortlinks/internal/config"
)

// Value is a mapping as stored by the key/value store. QR fields did not
// exist there.
type Value struct {
	Target  string  `json:"target"`
	Name    *string `json:"name"`
	Expiry  *string `json:"expiry"`
	Enabled *bool   `json:"enabled"`
}

// Entry is one key of a source. Value is nil for keys whose value is missing
// or JSON null; Err is set when the value could not be read or decoded.
type Entry struct {
	Key   string `json:"key"`
	Value *Value `json:"value,omitempty"`
	Err   error  `json:"-"`
}

// Source enumerates legacy entries.
type Source interface {
	// Name describes the source for logs and audit events.
	Name() string
	// Page returns the entries after cursor. An empty cursor starts from the
	// beginning; an empty next cursor means the source is exhausted.
	Page(ctx context.Context, cursor string) (entries []Entry, next string, err error)
	Close() error
}

func decodeValue(key string, raw []byte) Entry {
	entry := Entry{Key: key}
	if len(raw) == 0 {
		return entry
	}
	var value *Value
	if err := json.Unmarshal(raw, &value); err != nil {
		entry.Err = fmt.Errorf("decode value of %q: %w", key, err)
		return entry
	}
	entry.Value = value
	return entry
}

// SourceSpec selects a source: a JSON export when File is set, otherwise the
// Redis server at RedisAddr or the configured one.
type SourceSpec struct {
	File      string `json:"file,omitempty"`
	RedisAddr string `json:"redis_addr,omitempty"`
}

// Open returns the source described by spec. Callers must Close it.
func Open(spec SourceSpec, cfg config.Legacy) (Source, error) {
	if spec.File != "" {
		src, err := NewFileSource(spec.File)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	src, err := NewRedisSourceFromConfig(cfg, spec.RedisAddr)
	if err != nil {
		return nil, err
	}
	return src, nil
}
