package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redisclient "github.com/tortasnery/storefront/pkg/redis"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(tokenID string) string
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, tokenID string) (bool, error)
}

// Manager records issued session tokens so logout can revoke them before
// the JWT itself expires.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Manager{store: client, keyer: client}, nil
}

// Register stores the token id until expiresAt.
func (m *Manager) Register(ctx context.Context, tokenID string, userID int64, expiresAt time.Time) error {
	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("token id is required")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	return m.store.Set(ctx, m.keyer.SessionKey(tokenID), strconv.FormatInt(userID, 10), ttl)
}

// HasSession reports whether the token id is still registered.
func (m *Manager) HasSession(ctx context.Context, tokenID string) (bool, error) {
	if strings.TrimSpace(tokenID) == "" {
		return false, nil
	}
	return m.store.Exists(ctx, m.keyer.SessionKey(tokenID))
}

// Revoke deletes the session record tied to the token id.
func (m *Manager) Revoke(ctx context.Context, tokenID string) error {
	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("token id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(tokenID))
}
