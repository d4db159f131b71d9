package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/redis"
)

const (
	DefaultRecentLimit = 4
	MaxRecentLimit     = 50
)

// Stats is the headline block of the admin dashboard.
type Stats struct {
	Sales         decimal.Decimal `json:"sales"`
	PendingOrders int64           `json:"pendingOrders"`
	Products      int64           `json:"products"`
	Customers     int64           `json:"customers"`
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

type recentOrders interface {
	Recent(ctx context.Context, limit int) ([]models.Order, error)
}

type Service interface {
	Stats(ctx context.Context) (Stats, error)
	PendingCount(ctx context.Context) (int64, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
}

type service struct {
	repo   *Repository
	orders recentOrders
	cache  cacheStore
	ttl    time.Duration
	logg   *logger.Logger
}

// NewService builds the dashboard service. cache may be nil, in which case
// every call hits the database.
func NewService(repo *Repository, orders recentOrders, cache cacheStore, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	return &service{repo: repo, orders: orders, cache: cache, ttl: ttl, logg: logg}, nil
}

// StatsCacheKey is the cache key order writes must invalidate.
func StatsCacheKey(keys interface{ CacheKey(parts ...string) string }) string {
	return keys.CacheKey("orders", "stats")
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	if cached, ok := s.cached(ctx); ok {
		return cached, nil
	}

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.repo.Sales(gctx)
		stats.Sales = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.CountByStatus(gctx, enums.OrderStatusPending)
		stats.PendingOrders = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.CountProducts(gctx)
		stats.Products = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.CountCustomers(gctx)
		stats.Customers = v
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard stats")
	}

	s.store(ctx, stats)
	return stats, nil
}

func (s *service) cached(ctx context.Context) (Stats, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return Stats{}, false
	}
	raw, err := s.cache.Get(ctx, StatsCacheKey(s.cache))
	if err != nil {
		if !redis.IsMiss(err) {
			s.warn(ctx, "dashboard.cache_read_failed", err)
		}
		return Stats{}, false
	}
	var stats Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		s.warn(ctx, "dashboard.cache_decode_failed", err)
		return Stats{}, false
	}
	return stats, true
}

func (s *service) store(ctx context.Context, stats Stats) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, StatsCacheKey(s.cache), string(raw), s.ttl); err != nil {
		s.warn(ctx, "dashboard.cache_write_failed", err)
	}
}

func (s *service) PendingCount(ctx context.Context) (int64, error) {
	n, err := s.repo.CountByStatus(ctx, enums.OrderStatusPending)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending orders")
	}
	return n, nil
}

func (s *service) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	return s.orders.Recent(ctx, limit)
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
