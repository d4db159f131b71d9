// Package seed prepares a fresh database with the storefront's starter
// catalog and can fill it with sample orders for local work.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/tortasnery/storefront/internal/categories"
	"github.com/tortasnery/storefront/internal/orders"
	"github.com/tortasnery/storefront/internal/products"
	"github.com/tortasnery/storefront/internal/settings"
	"github.com/tortasnery/storefront/pkg/enums"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

const DefaultMockOrders = 10

type adminBootstrapper interface {
	Bootstrap(ctx context.Context, email, password string) (bool, error)
}

// Report summarises what Setup changed.
type Report struct {
	CategoriesCreated int                     `json:"categoriesCreated"`
	ProductsCreated   int                     `json:"productsCreated"`
	SettingsCreated   bool                    `json:"settingsCreated"`
	AdminCreated      bool                    `json:"adminCreated"`
	Backfill          products.BackfillResult `json:"backfill"`
}

type Seeder struct {
	Categories categories.Service
	Products   products.Service
	Settings   settings.Service
	Orders     orders.Service
	Auth       adminBootstrapper

	AdminEmail    string
	AdminPassword string
	Logger        *logger.Logger

	rand *rand.Rand
}

var starterCategories = []categories.Input{
	{Name: "Bodas", Slug: "bodas"},
	{Name: "XV Años", Slug: "xv-anos"},
	{Name: "Especiales", Slug: "especiales"},
}

var starterProducts = []products.Input{
	{
		Name:        "Wedding Classic",
		Description: "Torta de bodas de tres pisos con acabado en fondant y flores de azúcar.",
		Price:       decimal.RequireFromString("85.00"),
		Stock:       10,
		Category:    "bodas",
	},
	{
		Name:        "Floral Vintage XV",
		Description: "Diseño vintage con flores naturales para quinceañeras.",
		Price:       decimal.RequireFromString("65.00"),
		Stock:       8,
		Category:    "xv-anos",
	},
}

var starterSettings = settings.Input{
	StoreName:    "Tortas Nery",
	ContactEmail: "admin@tortasnery.com",
	ContactPhone: "+51 997 935 991",
	Address:      "Av. Ejemplo 123, Lima",
}

// Setup is idempotent: it only creates what is missing. Step failures are
// collected so one broken step does not hide the others.
func (s *Seeder) Setup(ctx context.Context) (Report, error) {
	var (
		report Report
		errs   error
	)

	for _, in := range starterCategories {
		_, err := s.Categories.Resolve(ctx, in.Slug)
		if err == nil {
			continue
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			errs = multierr.Append(errs, fmt.Errorf("category %s: %w", in.Slug, err))
			continue
		}
		if _, err := s.Categories.Create(ctx, in); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("category %s: %w", in.Slug, err))
			continue
		}
		report.CategoriesCreated++
	}

	existing, err := s.Products.List(ctx, products.ListParams{IncludeInactive: true})
	switch {
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("list products: %w", err))
	case len(existing) == 0:
		for _, in := range starterProducts {
			if _, err := s.Products.Create(ctx, in); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("product %s: %w", in.Name, err))
				continue
			}
			report.ProductsCreated++
		}
	}

	current, err := s.Settings.Get(ctx)
	switch {
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("load settings: %w", err))
	case current.UpdatedAt.IsZero():
		if _, err := s.Settings.Update(ctx, starterSettings, nil); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("settings: %w", err))
		} else {
			report.SettingsCreated = true
		}
	}

	if s.Auth != nil {
		created, err := s.Auth.Bootstrap(ctx, s.AdminEmail, s.AdminPassword)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("admin: %w", err))
		}
		report.AdminCreated = created
	}

	backfill, err := s.Products.BackfillSlugs(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("slug backfill: %w", err))
	}
	report.Backfill = backfill

	if s.Logger != nil {
		s.Logger.Info(s.Logger.WithFields(ctx, map[string]any{
			"categories_created": report.CategoriesCreated,
			"products_created":   report.ProductsCreated,
			"settings_created":   report.SettingsCreated,
			"admin_created":      report.AdminCreated,
			"slugs_updated":      report.Backfill.Updated,
		}), "seed.setup_complete")
	}
	return report, errs
}

var (
	mockFirstNames = []string{"Ana", "Luis", "Rosa", "Carlos", "María", "Jorge", "Lucía", "Pedro"}
	mockLastNames  = []string{"Quispe", "Flores", "Rojas", "Huamán", "Torres", "Castillo"}
	mockStatuses   = []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusProcessing,
		enums.OrderStatusCompleted,
		enums.OrderStatusCancelled,
	}
)

// Mock creates n random orders over the active catalog. Totals always match
// the generated items.
func (s *Seeder) Mock(ctx context.Context, n int) ([]orders.Created, error) {
	if n <= 0 {
		n = DefaultMockOrders
	}
	catalog, err := s.Products.List(ctx, products.ListParams{})
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no active products to build orders from")
	}
	rng := s.rng()

	created := make([]orders.Created, 0, n)
	for range n {
		first := mockFirstNames[rng.IntN(len(mockFirstNames))]
		last := mockLastNames[rng.IntN(len(mockLastNames))]

		var (
			items []orders.LineItem
			total = decimal.Zero
		)
		for range 1 + rng.IntN(3) {
			p := catalog[rng.IntN(len(catalog))]
			id := p.ID
			qty := 1 + rng.IntN(3)
			items = append(items, orders.LineItem{ProductID: &id, Name: p.Name, Quantity: qty, UnitPrice: p.Price})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
		}

		eventDate := time.Now().AddDate(0, 0, 3+rng.IntN(60))
		input := orders.CreateInput{
			Customer: orders.CustomerForm{
				FirstName: first,
				LastName:  last,
				Email:     fmt.Sprintf("%s.%s%d@example.com", asciiLower(first), asciiLower(last), rng.IntN(100)),
				Phone:     fmt.Sprintf("9%08d", rng.IntN(100000000)),
				EventDate: eventDate.Format(time.DateOnly),
				EventTime: fmt.Sprintf("%02d:00", 10+rng.IntN(10)),
				Address:   fmt.Sprintf("Av. Ejemplo %d, Lima", 100+rng.IntN(900)),
			},
			Items:  items,
			Total:  total,
			Status: mockStatuses[rng.IntN(len(mockStatuses))].String(),
			Source: orders.SourceSeed,
		}
		result, err := s.createWithRetry(ctx, input)
		if err != nil {
			return created, err
		}
		created = append(created, result)
	}
	return created, nil
}

// createWithRetry draws a fresh order number when a random one collides.
func (s *Seeder) createWithRetry(ctx context.Context, input orders.CreateInput) (orders.Created, error) {
	var err error
	for range 3 {
		var result orders.Created
		result, err = s.Orders.CreateOrder(ctx, input)
		if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return result, err
		}
	}
	return orders.Created{}, err
}

func (s *Seeder) rng() *rand.Rand {
	if s.rand != nil {
		return s.rand
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func asciiLower(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		}
	}
	return string(out)
}
