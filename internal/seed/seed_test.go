package seed

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tortasnery/storefront/internal/auth"
	"github.com/tortasnery/storefront/internal/categories"
	"github.com/tortasnery/storefront/internal/orders"
	"github.com/tortasnery/storefront/internal/products"
	"github.com/tortasnery/storefront/internal/repo/repotest"
	"github.com/tortasnery/storefront/internal/settings"
	"github.com/tortasnery/storefront/internal/users"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/db/models"
)

func newSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	t.Helper()
	conn := repotest.NewDB(t)
	client := db.Wrap(conn)

	cats, err := categories.NewService(categories.NewRepository(conn), client)
	require.NoError(t, err)
	prods, err := products.NewService(products.NewRepository(conn), client, cats, nil)
	require.NoError(t, err)
	store, err := settings.NewService(settings.NewRepository(conn), nil, settings.Settings{StoreName: "Tortas Nery"}, nil)
	require.NoError(t, err)
	ords, err := orders.NewService(orders.Deps{Repo: orders.NewRepository(conn), Tx: client})
	require.NoError(t, err)
	authSvc, err := auth.NewService(auth.ServiceParams{
		Users:     users.NewRepository(conn),
		JWTConfig: config.JWTConfig{Secret: "s", Issuer: "tortasnery"},
		Password:  config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	require.NoError(t, err)

	return &Seeder{
		Categories:    cats,
		Products:      prods,
		Settings:      store,
		Orders:        ords,
		Auth:          authSvc,
		AdminEmail:    "admin@tortasnery.com",
		AdminPassword: "admin123",
		rand:          rand.New(rand.NewPCG(1, 2)),
	}, conn
}

func TestSetupIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, conn := newSeeder(t)

	report, err := s.Setup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.CategoriesCreated)
	assert.Equal(t, 2, report.ProductsCreated)
	assert.True(t, report.SettingsCreated)
	assert.True(t, report.AdminCreated)

	again, err := s.Setup(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Backfill: products.BackfillResult{Scanned: 2}}, again)

	wedding, err := s.Products.GetBySlug(ctx, "wedding-classic")
	require.NoError(t, err)
	require.NotNil(t, wedding.Category)
	assert.Equal(t, "bodas", wedding.Category.Slug)
	assert.Equal(t, 10, wedding.Stock)

	stored, err := s.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Av. Ejemplo 123, Lima", stored.Address)

	var admins int64
	require.NoError(t, conn.Model(&models.User{}).Where("role = ?", "admin").Count(&admins).Error)
	assert.EqualValues(t, 1, admins)
}

func TestMockCreatesConsistentOrders(t *testing.T) {
	ctx := context.Background()
	s, conn := newSeeder(t)
	_, err := s.Setup(ctx)
	require.NoError(t, err)

	created, err := s.Mock(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, created, DefaultMockOrders)

	var rows []models.Order
	require.NoError(t, conn.Preload("Items").Find(&rows).Error)
	require.Len(t, rows, DefaultMockOrders)
	for _, o := range rows {
		sum := decimal.Zero
		for _, it := range o.Items {
			sum = sum.Add(it.Subtotal)
		}
		assert.True(t, sum.Equal(o.TotalAmount), "order %s total %s != %s", o.OrderNumber, o.TotalAmount, sum)
		assert.NotEmpty(t, o.Items)
	}
}

func TestMockRequiresCatalog(t *testing.T) {
	s, _ := newSeeder(t)
	_, err := s.Mock(context.Background(), 3)
	assert.Error(t, err)
}

func TestASCIILower(t *testing.T) {
	assert.Equal(t, "mara", asciiLower("María"))
	assert.Equal(t, "huamn", asciiLower("Huamán"))
}
