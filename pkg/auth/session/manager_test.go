package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type prefixKeyer struct{}

func (prefixKeyer) SessionKey(id string) string { return "tn:session:" + id }

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	m := &Manager{store: store, keyer: prefixKeyer{}}

	require.NoError(t, m.Register(ctx, "jti-1", 7, time.Now().Add(24*time.Hour)))
	assert.Equal(t, "7", store.values["tn:session:jti-1"])
	assert.InDelta(t, (24 * time.Hour).Seconds(), store.ttls["tn:session:jti-1"].Seconds(), 5)

	ok, err := m.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Revoke(ctx, "jti-1"))
	ok, err = m.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	m := &Manager{store: newMemoryStore(), keyer: prefixKeyer{}}

	assert.Error(t, m.Register(ctx, " ", 1, time.Now().Add(time.Hour)))
	assert.Error(t, m.Register(ctx, "jti", 1, time.Now().Add(-time.Minute)))
	assert.Error(t, m.Revoke(ctx, ""))

	ok, err := m.HasSession(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewManager(nil)
	assert.Error(t, err)
}
