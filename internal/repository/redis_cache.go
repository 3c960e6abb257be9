package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	trainerByIDKeyPrefix   = "trainer:id:"
	trainerByUserKeyPrefix = "trainer:user:"
	catalogCategoriesKey   = "catalog:categories"
	catalogEquipmentKey    = "catalog:equipment"

	scanBatch = 100

	defaultCacheTTL = 5 * time.Minute
)

// ErrCacheMiss aliases the domain sentinel for callers of this package
var ErrCacheMiss = domain.ErrCacheMiss

var cacheTracer = otel.Tracer("trackhub/redis")

// RedisCacheRepository implements domain.CacheRepository with JSON values
// in Redis. Every call is traced.
type RedisCacheRepository struct {
	client *redis.Client
}

func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{client: client}
}

func startCacheSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return cacheTracer.Start(ctx, "redis."+op, trace.WithAttributes(attrs...))
}

// fail records err on the span and wraps it with the operation name
func fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	return fmt.Errorf("redis %s: %w", op, err)
}

func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	ctx, span := startCacheSpan(ctx, "Get", attribute.String("cache.key", key))
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.String("cache.result", "miss"))
		return ErrCacheMiss
	}
	if err != nil {
		return fail(span, "get", err)
	}
	span.SetAttributes(attribute.String("cache.result", "hit"))
	if err := json.Unmarshal(data, dest); err != nil {
		return fail(span, "decode", err)
	}
	return nil
}

func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, span := startCacheSpan(ctx, "Set",
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		return fail(span, "encode", err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fail(span, "set", err)
	}
	return nil
}

// SetNX stores value only when key is absent and reports whether it did
func (r *RedisCacheRepository) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	ctx, span := startCacheSpan(ctx, "SetNX", attribute.String("cache.key", key))
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		return false, fail(span, "encode", err)
	}
	stored, err := r.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return false, fail(span, "setnx", err)
	}
	span.SetAttributes(attribute.Bool("cache.stored", stored))
	return stored, nil
}

func (r *RedisCacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := startCacheSpan(ctx, "Delete", attribute.Int("cache.key_count", len(keys)))
	defer span.End()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fail(span, "del", err)
	}
	return nil
}

// DeleteByPattern scans for matching keys and deletes them in batches.
// SCAN walks the whole keyspace, so keep it off hot paths.
func (r *RedisCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	ctx, span := startCacheSpan(ctx, "DeleteByPattern", attribute.String("cache.pattern", pattern))
	defer span.End()

	deleted := 0
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return fail(span, "del", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fail(span, "scan", err)
	}
	if err := flush(); err != nil {
		return fail(span, "del", err)
	}
	span.SetAttributes(attribute.Int("cache.deleted", deleted))
	return nil
}
