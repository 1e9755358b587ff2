package cache

import (
	"context"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"javox/pkg/utils/logger"
)

const (
	redisKeyPrefix = "javox:artifact:"
	defaultTTL     = 30 * time.Minute

	classField = "class"
	dataField  = "data"
)

// RedisCache is a shared artifact cache tier for multi-replica
// deployments. Bytecode is stored zstd-compressed with a TTL, so Redis
// eviction and expiry provide the bounded, reclaimable retention.
// Every Redis error degrades to a cache miss.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewRedisCache creates a Redis-backed artifact cache. A zero ttl
// selects the default.
func NewRedisCache(addr string, ttl time.Duration) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		ttl:     ttl,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Ping verifies the Redis connection is alive.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get returns the cached artifact for fingerprint, if any.
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (Artifact, bool) {
	fields, err := c.client.HGetAll(ctx, redisKeyPrefix+fingerprint).Result()
	if err != nil || len(fields) == 0 {
		if err != nil {
			logger.Warn(ctx, "artifact cache get failed", zap.Error(err))
		}
		return Artifact{}, false
	}
	className, ok := fields[classField]
	if !ok || className == "" {
		return Artifact{}, false
	}
	bytecode, err := c.decoder.DecodeAll([]byte(fields[dataField]), nil)
	if err != nil {
		logger.Warn(ctx, "artifact cache entry corrupt", zap.Error(err))
		return Artifact{}, false
	}
	return Artifact{ClassName: className, Bytecode: bytecode}, true
}

// Put stores the artifact under fingerprint with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, fingerprint string, artifact Artifact) {
	key := redisKeyPrefix + fingerprint
	compressed := c.encoder.EncodeAll(artifact.Bytecode, nil)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, classField, artifact.ClassName, dataField, compressed)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn(ctx, "artifact cache put failed", zap.Error(err))
	}
}
