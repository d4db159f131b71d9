package dashboard

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tortasnery/storefront/internal/repo/repotest"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
)

type memoryCache struct {
	data map[string]string
	sets int
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	m.sets++
	return nil
}

func (m *memoryCache) CacheKey(parts ...string) string {
	key := "tn:cache"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

type stubRecent struct{ limit int }

func (s *stubRecent) Recent(_ context.Context, limit int) ([]models.Order, error) {
	s.limit = limit
	return []models.Order{{OrderNumber: "100001"}}, nil
}

func seedOrders(t *testing.T, conn *gorm.DB) {
	t.Helper()
	rows := []struct {
		email  string
		total  string
		status enums.OrderStatus
	}{
		{"ana@example.com", "100.50", enums.OrderStatusPending},
		{"ana@example.com", "50", enums.OrderStatusCompleted},
		{"luis@example.com", "999", enums.OrderStatusCancelled},
		{"rosa@example.com", "20", enums.OrderStatusPending},
	}
	for i, r := range rows {
		order := models.Order{
			OrderNumber:   string(rune('a'+i)) + "00000",
			CustomerName:  "X Y",
			CustomerEmail: r.email,
			TotalAmount:   decimal.RequireFromString(r.total),
			Status:        r.status,
			PaymentMethod: "whatsapp",
		}
		require.NoError(t, conn.Create(&order).Error)
	}
	require.NoError(t, conn.Create(&models.Product{Name: "P", Price: decimal.NewFromInt(1), IsActive: true, Rating: decimal.NewFromInt(5)}).Error)
}

func TestStatsAggregatesAndCaches(t *testing.T) {
	ctx := context.Background()
	conn := repotest.NewDB(t)
	seedOrders(t, conn)
	cache := &memoryCache{data: map[string]string{}}

	svc, err := NewService(NewRepository(conn), &stubRecent{}, cache, time.Minute, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Sales.Equal(decimal.RequireFromString("170.5")), stats.Sales.String())
	assert.EqualValues(t, 2, stats.PendingOrders)
	assert.EqualValues(t, 1, stats.Products)
	assert.EqualValues(t, 3, stats.Customers)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.data, "tn:cache:orders:stats")

	// a cached value short-circuits the database
	require.NoError(t, conn.Exec("DELETE FROM orders").Error)
	again, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, again.PendingOrders)
	assert.Equal(t, 1, cache.sets)

	delete(cache.data, "tn:cache:orders:stats")
	fresh, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, fresh.Sales.IsZero())
	assert.Zero(t, fresh.Customers)
}

func TestStatsWithoutCache(t *testing.T) {
	conn := repotest.NewDB(t)
	svc, err := NewService(NewRepository(conn), &stubRecent{}, nil, 0, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Sales.IsZero())
}

func TestPendingCountAndRecentLimits(t *testing.T) {
	ctx := context.Background()
	conn := repotest.NewDB(t)
	seedOrders(t, conn)
	recent := &stubRecent{}
	svc, err := NewService(NewRepository(conn), recent, nil, 0, nil)
	require.NoError(t, err)

	n, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = svc.RecentOrders(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRecentLimit, recent.limit)

	_, err = svc.RecentOrders(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxRecentLimit, recent.limit)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &stubRecent{}, nil, 0, nil)
	assert.Error(t, err)
	_, err = NewService(NewRepository(repotest.NewDB(t)), nil, nil, 0, nil)
	assert.Error(t, err)
}
