package legacy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/shortlinks/internal/config"
)

// DefaultScanCount is the SCAN COUNT hint used when none is configured.
const DefaultScanCount = 1000

// KV is the part of the go-redis client used by RedisSource.
type KV interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisSource reads entries with SCAN and GET. Keys outside prefix are not
// visited and the prefix is stripped from paths.
type RedisSource struct {
	kv     KV
	prefix string
	count  int64
	closer func() error
}

// NewRedisSource wraps an existing client.
func NewRedisSource(kv KV, prefix string, count int64) *RedisSource {
	if count <= 0 {
		count = DefaultScanCount
	}
	return &RedisSource{kv: kv, prefix: prefix, count: count}
}

// NewRedisSourceFromConfig dials the Redis server configured in cfg. A
// non-empty addr overrides cfg.RedisAddr.
func NewRedisSourceFromConfig(cfg config.Legacy, addr string) (*RedisSource, error) {
	if addr == "" {
		addr = cfg.RedisAddr
	}
	if addr == "" {
		return nil, errors.New("legacy redis address is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	source := NewRedisSource(client, cfg.RedisPrefix, cfg.ScanCount)
	source.closer = client.Close
	return source, nil
}

func (s *RedisSource) Name() string {
	if s.prefix == "" {
		return "redis"
	}
	return "redis:" + s.prefix
}

// Page runs one SCAN step and fetches the value of every key it returned.
// Redis may return a key more than once across a scan; the importer skips the
// repeat as an existing path.
func (s *RedisSource) Page(ctx context.Context, cursor string) ([]Entry, string, error) {
	var pos uint64
	if cursor != "" {
		var err error
		pos, err = strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid redis cursor %q: %w", cursor, err)
		}
	}

	keys, next, err := s.kv.Scan(ctx, pos, matchPrefix(s.prefix), s.count).Result()
	if err != nil {
		return nil, "", fmt.Errorf("redis scan: %w", err)
	}

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		path := strings.TrimPrefix(key, s.prefix)
		raw, err := s.kv.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			entries = append(entries, Entry{Key: path})
		case err != nil:
			if ctx.Err() != nil {
				return entries, "", ctx.Err()
			}
			entries = append(entries, Entry{Key: path, Err: fmt.Errorf("redis get %q: %w", key, err)})
		default:
			entries = append(entries, decodeValue(path, raw))
		}
	}

	if next == 0 {
		return entries, "", nil
	}
	return entries, strconv.FormatUint(next, 10), nil
}

func (s *RedisSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// matchPrefix builds a SCAN MATCH pattern for keys starting with prefix.
func matchPrefix(prefix string) string {
	return globEscaper.Replace(prefix) + "*"
}
