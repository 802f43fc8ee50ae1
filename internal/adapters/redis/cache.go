// Package redis provides the digest-existence cache accelerating the Blob
// dedupe lookup. It is never the sole basis for a dedupe decision: a cache
// hit still exists-checks Postgres before skipping bytes upload, and a
// cache miss or Redis outage simply falls through to Postgres (spec.md §B).
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/platform/mredis"
	"github.com/sremani/artifortress/internal/platform/mtelemetry"
)

// DigestExistsTTL bounds how long a known-existing digest stays cached.
const DigestExistsTTL = 10 * time.Minute

const digestKeyPrefix = "blob:digest:"

// Cache is the Redis-backed dedupe accelerator. Every method degrades to
// "miss" on error rather than propagating, since Postgres remains the
// source of truth for every caller.
//
//go:generate mockgen --destination=cache.mock.go --package=redis . Cache
type Cache interface {
	// DigestExists reports whether digest was previously marked present.
	// ok is false on a cache miss or any Redis failure, never an error:
	// callers fall through to the Blob repository in that case.
	DigestExists(ctx context.Context, digest string) (exists, ok bool)
	// MarkDigestExists records digest as present, best-effort.
	MarkDigestExists(ctx context.Context, digest string) error
	// ForgetDigest evicts digest. No caller in this module uses it; the GC
	// sweep does not evict the digests it deletes.
	ForgetDigest(ctx context.Context, digest string) error
}

// RedisCache is the go-redis/v9 implementation of Cache.
type RedisCache struct {
	connection *mredis.Connection
	logger     mlog.Logger
}

// NewRedisCache returns a Cache bound to conn.
func NewRedisCache(conn *mredis.Connection, logger mlog.Logger) *RedisCache {
	return &RedisCache{connection: conn, logger: logger}
}

func digestKey(digest string) string {
	return digestKeyPrefix + digest
}

func (c *RedisCache) DigestExists(ctx context.Context, digest string) (bool, bool) {
	tracer := mtelemetry.Tracer("redis.cache")
	ctx, span := tracer.Start(ctx, "redis.digest_exists")
	defer span.End()

	client, err := c.connection.GetClient(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get redis client", err)
		c.logger.Warnf("dedupe cache unavailable, falling through to postgres: %v", err)

		return false, false
	}

	val, err := client.Get(ctx, digestKey(digest)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			mtelemetry.HandleSpanError(&span, "failed to read digest cache entry", err)
			c.logger.Warnf("dedupe cache read failed, falling through to postgres: %v", err)
		}

		return false, false
	}

	return val == "1", true
}

func (c *RedisCache) MarkDigestExists(ctx context.Context, digest string) error {
	tracer := mtelemetry.Tracer("redis.cache")
	ctx, span := tracer.Start(ctx, "redis.mark_digest_exists")
	defer span.End()

	client, err := c.connection.GetClient(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get redis client", err)
		c.logger.Warnf("dedupe cache unavailable, skipping mark: %v", err)

		return nil
	}

	if err := client.Set(ctx, digestKey(digest), "1", DigestExistsTTL).Err(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to write digest cache entry", err)
		c.logger.Warnf("dedupe cache write failed: %v", err)

		return nil
	}

	return nil
}

func (c *RedisCache) ForgetDigest(ctx context.Context, digest string) error {
	tracer := mtelemetry.Tracer("redis.cache")
	ctx, span := tracer.Start(ctx, "redis.forget_digest")
	defer span.End()

	client, err := c.connection.GetClient(ctx)
	if err != nil {
		mtelemetry.HandleSpanError(&span, "failed to get redis client", err)
		c.logger.Warnf("dedupe cache unavailable, skipping forget: %v", err)

		return nil
	}

	if err := client.Del(ctx, digestKey(digest)).Err(); err != nil {
		mtelemetry.HandleSpanError(&span, "failed to delete digest cache entry", err)
		c.logger.Warnf("dedupe cache delete failed: %v", err)

		return nil
	}

	return nil
}
