package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/vending-machine/internal/catalog"
	"github.com/rl1809/vending-machine/internal/core/domain"
)

const testCatalogKey = "vending:catalog:test"

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisLoadCatalog_RoundTrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testCatalogKey)

	seed := domain.Catalog{
		domain.SelectionSoda: {Price: decimal.RequireFromString("1.50"), Quantity: 5},
		domain.SelectionGum:  {Price: decimal.RequireFromString("0.50"), Quantity: 0},
	}
	if err := adapter.SeedCatalog(ctx, seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	defer client.Del(ctx, testCatalogKey)

	cat, err := adapter.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(cat) != 2 {
		t.Fatalf("expected 2 items, got %d", len(cat))
	}
	if !cat[domain.SelectionSoda].Price.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("unexpected soda price %s", cat[domain.SelectionSoda].Price)
	}
}

func TestRedisLoadCatalog_Empty(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	client.Del(ctx, testCatalogKey)

	_, err := NewRedisAdapter(client, testCatalogKey).LoadCatalog(ctx)
	if !errors.Is(err, catalog.ErrInvalidResource) {
		t.Errorf("expected ErrInvalidResource, got: %v", err)
	}
}

func TestRedisLoadCatalog_UnknownField(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	client.Del(ctx, testCatalogKey)
	client.HSet(ctx, testCatalogKey, "espresso", `{"price": 2, "quantity": 1}`)
	defer client.Del(ctx, testCatalogKey)

	_, err := NewRedisAdapter(client, testCatalogKey).LoadCatalog(ctx)
	if !errors.Is(err, domain.ErrUnknownSelection) {
		t.Errorf("expected ErrUnknownSelection, got: %v", err)
	}
}

func TestRedisSetIdempotency_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testCatalogKey)

	client.Del(ctx, idempotencyKeyPrefix+"test-idem-key")

	ok, err := adapter.SetIdempotency(ctx, "test-idem-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first call to succeed")
	}

	ok, err = adapter.SetIdempotency(ctx, "test-idem-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second call to fail")
	}

	if err := adapter.ReleaseIdempotency(ctx, "test-idem-key"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	ok, _ = adapter.SetIdempotency(ctx, "test-idem-key")
	if !ok {
		t.Error("expected claim after release to succeed")
	}
	client.Del(ctx, idempotencyKeyPrefix+"test-idem-key")
}

func TestRedisSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, testCatalogKey)

	client.Del(ctx, idempotencyKeyPrefix+"concurrent-idem-key")
	defer client.Del(ctx, idempotencyKeyPrefix+"concurrent-idem-key")

	var successCount atomic.Int32
	var wg sync.WaitGroup
	concurrency := 100

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(ctx, "concurrent-idem-key")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", successCount.Load())
	}
}
