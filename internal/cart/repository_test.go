package cart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/pkg/logger"
)

type fakeBlobStore struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeBlobStore) Get(_ context.Context, key string) (string, error) {
	if f.failGet != nil {
		return "", f.failGet
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeBlobStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeBlobStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeBlobStore) CartKey(cartID string) string { return "tn:cart:" + cartID }

func sampleItems() []Item {
	return []Item{
		{ProductID: 1, Name: "Wedding Classic", Price: decimal.RequireFromString("85.00"), ImageURL: "/img/logo.jpg", Quantity: 2},
		{ProductID: 2, Name: "Floral Vintage XV", Price: decimal.RequireFromString("65.00"), Description: "Flores", Quantity: 1},
	}
}

func TestRedisRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeBlobStore()
	repo := NewRedisRepository(store, 48*time.Hour, nil)

	require.NoError(t, repo.Save(ctx, "c1", sampleItems()))
	assert.Equal(t, 48*time.Hour, store.ttls["tn:cart:c1"])

	got, err := repo.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, want := range sampleItems() {
		assert.Equal(t, want.ProductID, got[i].ProductID)
		assert.Equal(t, want.Name, got[i].Name)
		assert.True(t, want.Price.Equal(got[i].Price))
		assert.Equal(t, want.ImageURL, got[i].ImageURL)
		assert.Equal(t, want.Description, got[i].Description)
		assert.Equal(t, want.Quantity, got[i].Quantity)
	}

	require.NoError(t, repo.Delete(ctx, "c1"))
	got, err = repo.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisRepositoryMalformedBlobYieldsEmptyCart(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	store := newFakeBlobStore()
	store.data["tn:cart:broken"] = "{not json"
	repo := NewRedisRepository(store, time.Hour, logg)

	got, err := repo.Load(context.Background(), "broken")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "cart.rehydrate_failed")
	assert.Contains(t, buf.String(), `"cart_id":"broken"`)
}

func TestRedisRepositorySurfacesTransportErrors(t *testing.T) {
	store := newFakeBlobStore()
	store.failGet = errors.New("connection refused")
	repo := NewRedisRepository(store, time.Hour, nil)

	_, err := repo.Load(context.Background(), "c1")
	assert.Error(t, err)
}

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	got, err := repo.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Save(ctx, "c1", sampleItems()))
	got, err = repo.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, repo.Delete(ctx, "c1"))
	got, err = repo.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
