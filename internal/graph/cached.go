package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/oakfield-sports/clubquery/internal/cache"
	"github.com/oakfield-sports/clubquery/internal/observability"
)

// CachedExecutor is a short-TTL read-through cache in front of an Executor.
// Entries are advisory: staleness inside the TTL window is acceptable, and
// cache failures fall through to the wrapped executor.
type CachedExecutor struct {
	inner  Executor
	cache  cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewCachedExecutor wraps an executor with a read-through cache.
func NewCachedExecutor(inner Executor, c cache.Client, ttl time.Duration, logger *observability.Logger) *CachedExecutor {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &CachedExecutor{inner: inner, cache: c, ttl: ttl, logger: logger}
}

// Execute serves parameter-identical statements from cache within the TTL.
func (e *CachedExecutor) Execute(ctx context.Context, statement string, params map[string]any) ([]Row, error) {
	key, ok := e.key(statement, params)
	if ok {
		if data, err := e.cache.Get(ctx, key); err == nil {
			var rows []Row
			if err := json.Unmarshal(data, &rows); err == nil {
				e.logger.Debug().Str("key", key).Msg("Query cache hit")
				return rows, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn().Err(err).Msg("Query cache read failed")
		}
	}

	rows, err := e.inner.Execute(ctx, statement, params)
	if err != nil {
		return nil, err
	}

	if ok {
		if data, err := json.Marshal(rows); err == nil {
			if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
				e.logger.Warn().Err(err).Msg("Query cache write failed")
			}
		}
	}

	return rows, nil
}

// key hashes statement text plus parameters. Parameters that fail to
// serialize (time zones are fine; arbitrary types are not expected) disable
// caching for that call rather than corrupting the key space.
func (e *CachedExecutor) key(statement string, params map[string]any) (string, bool) {
	payload, err := json.Marshal(params)
	if err != nil {
		return "", false
	}
	buf := append([]byte(statement), 0)
	buf = append(buf, payload...)
	sum := sha256.Sum256(buf)
	return cache.Key("q", hex.EncodeToString(sum[:16])), true
}
