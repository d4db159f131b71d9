package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tortasnery/storefront/pkg/logger"
	redisclient "github.com/tortasnery/storefront/pkg/redis"
)

// Repository persists the full item list of a cart as one unit.
type Repository interface {
	Load(ctx context.Context, cartID string) ([]Item, error)
	Save(ctx context.Context, cartID string, items []Item) error
	Delete(ctx context.Context, cartID string) error
}

// MemoryRepository keeps carts in process memory.
type MemoryRepository struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: map[string][]byte{}}
}

func (r *MemoryRepository) Load(_ context.Context, cartID string) ([]Item, error) {
	r.mu.Lock()
	raw, ok := r.carts[cartID]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

func (r *MemoryRepository) Save(_ context.Context, cartID string, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.carts[cartID] = raw
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, cartID string) error {
	r.mu.Lock()
	delete(r.carts, cartID)
	r.mu.Unlock()
	return nil
}

type blobStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(cartID string) string
}

// RedisRepository stores each cart as one JSON string with a sliding TTL.
type RedisRepository struct {
	store blobStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewRedisRepository(store blobStore, ttl time.Duration, logg *logger.Logger) *RedisRepository {
	return &RedisRepository{store: store, ttl: ttl, logg: logg}
}

// Load treats a missing or unreadable blob as an empty cart.
func (r *RedisRepository) Load(ctx context.Context, cartID string) ([]Item, error) {
	raw, err := r.store.Get(ctx, r.store.CartKey(cartID))
	if err != nil {
		if redisclient.IsMiss(err) {
			return nil, nil
		}
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		if r.logg != nil {
			r.logg.Warn(r.logg.WithFields(r.logg.WithCartID(ctx, cartID), map[string]any{
				"error": err.Error(),
			}), "cart.rehydrate_failed")
		}
		return nil, nil
	}
	return items, nil
}

func (r *RedisRepository) Save(ctx context.Context, cartID string, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, r.store.CartKey(cartID), string(raw), r.ttl)
}

func (r *RedisRepository) Delete(ctx context.Context, cartID string) error {
	return r.store.Del(ctx, r.store.CartKey(cartID))
}
