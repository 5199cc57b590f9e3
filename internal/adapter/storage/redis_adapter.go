package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/vending-machine/internal/catalog"
	"github.com/rl1809/vending-machine/internal/core/domain"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
)

type RedisAdapter struct {
	client     *redis.Client
	catalogKey string
}

// NewRedisAdapter reads the catalog from the hash stored at catalogKey,
// one field per selection holding a JSON {"price", "quantity"} object.
func NewRedisAdapter(client *redis.Client, catalogKey string) *RedisAdapter {
	return &RedisAdapter{client: client, catalogKey: catalogKey}
}

func (r *RedisAdapter) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	fields, err := r.client.HGetAll(ctx, r.catalogKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall %s: %v", catalog.ErrInvalidResource, r.catalogKey, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: hash %s is empty", catalog.ErrInvalidResource, r.catalogKey)
	}

	raw := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		raw[k] = json.RawMessage(v)
	}

	entries, err := catalog.ParseEntries(raw)
	if err != nil {
		return nil, err
	}
	return catalog.Build(entries)
}

// SeedCatalog replaces the catalog hash with cat.
func (r *RedisAdapter) SeedCatalog(ctx context.Context, cat domain.Catalog) error {
	values := make(map[string]any, len(cat))
	for s, item := range cat {
		b, err := json.Marshal(map[string]any{"price": item.Price, "quantity": item.Quantity})
		if err != nil {
			return fmt.Errorf("encode %s: %w", s, err)
		}
		values[s.String()] = string(b)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.catalogKey)
	pipe.HSet(ctx, r.catalogKey, values)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
