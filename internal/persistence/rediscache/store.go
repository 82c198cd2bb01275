// Package rediscache decorates a RecordStore with a Redis read-through cache
// for user histories.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/emissions"
	"example.com/carbon/internal/logger"
)

const (
	keyPrefix        = "carbon:history"
	generationPrefix = "carbon:history_gen"

	// DefaultTTL applies when New is given a non-positive ttl. Entries written
	// under a superseded generation are never read again and expire after it.
	DefaultTTL = 10 * time.Minute
)

type cacheClient interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Incr(ctx context.Context, key string) *goredis.IntCmd
}

// Store caches FetchHistory results and invalidates them on writes. Redis
// failures are logged and the call falls through to the wrapped store.
//
// Cached histories are keyed by a per-user generation that every upsert bumps.
// A fill that read the wrapped store before a concurrent write lands under the
// old generation, so readers never see it once the write has returned.
type Store struct {
	domain.RecordStore
	client cacheClient
	ttl    time.Duration
	log    *logger.Logger
}

// New wraps inner. A non-positive ttl uses DefaultTTL.
func New(inner domain.RecordStore, client cacheClient, ttl time.Duration, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		RecordStore: inner,
		client:      client,
		ttl:         ttl,
		log:         log.With("component", "history_cache"),
	}
}

// Dial connects to addr and verifies the connection with a ping.
func Dial(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// UpsertRecord writes through to the wrapped store and moves the user to a new
// cache generation.
func (s *Store) UpsertRecord(ctx context.Context, rec *domain.StoredRecord) (bool, error) {
	replaced, err := s.RecordStore.UpsertRecord(ctx, rec)
	if err != nil {
		return false, err
	}
	if err := s.client.Incr(ctx, generationKey(rec.TenantID, rec.UserID)).Err(); err != nil {
		s.log.Warn("cache invalidation failed", "tenant_id", rec.TenantID, "user_id", rec.UserID, "error", err)
		recordCacheError("invalidate")
	}
	return replaced, nil
}

// FetchHistory serves the history from Redis when present.
func (s *Store) FetchHistory(ctx context.Context, tenantID, userID string) (emissions.History, error) {
	gen, err := s.client.Get(ctx, generationKey(tenantID, userID)).Int64()
	switch {
	case err == nil:
	case errors.Is(err, goredis.Nil):
		gen = 0
	default:
		// Without the generation a fill could shadow a newer write.
		s.log.Warn("cache generation read failed", "tenant_id", tenantID, "user_id", userID, "error", err)
		recordCacheError("read")
		recordCacheLookup(false)
		return s.RecordStore.FetchHistory(ctx, tenantID, userID)
	}
	key := historyKey(tenantID, userID, gen)

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var history emissions.History
		if decodeErr := json.Unmarshal(raw, &history); decodeErr == nil {
			recordCacheLookup(true)
			return history, nil
		}
		s.log.Warn("discarding undecodable cache entry", "key", key)
		recordCacheError("decode")
	case errors.Is(err, goredis.Nil):
	default:
		s.log.Warn("cache read failed", "key", key, "error", err)
		recordCacheError("read")
	}
	recordCacheLookup(false)

	history, err := s.RecordStore.FetchHistory(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(history)
	if err != nil {
		return history, nil
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
		recordCacheError("write")
	}
	return history, nil
}

func generationKey(tenantID, userID string) string {
	return fmt.Sprintf("%s:%s:%s", generationPrefix, tenantID, userID)
}

func historyKey(tenantID, userID string, gen int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", keyPrefix, tenantID, userID, gen)
}
