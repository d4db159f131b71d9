package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/tortasnery/storefront/pkg/db/models"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

type productLoader interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
}

// Service applies cart mutations and persists the full list after each one.
type Service interface {
	Get(ctx context.Context, cartID string) (Snapshot, error)
	Add(ctx context.Context, cartID string, productID int64, quantity int) (Snapshot, error)
	Remove(ctx context.Context, cartID string, productID int64) (Snapshot, error)
	Clear(ctx context.Context, cartID string) (Snapshot, error)
}

type service struct {
	repo     Repository
	products productLoader
	logg     *logger.Logger
}

func NewService(repo Repository, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, cartID string) (Snapshot, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Add snapshots the product's current name and price into the line.
// Stock is not checked.
func (s *service) Add(ctx context.Context, cartID string, productID int64, quantity int) (Snapshot, error) {
	if productID <= 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	if !product.IsActive {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}

	c, err := s.load(ctx, cartID)
	if err != nil {
		return Snapshot{}, err
	}
	c.AddItem(Item{
		ProductID:   product.ID,
		Name:        product.Name,
		Price:       product.Price,
		ImageURL:    product.ImageURL,
		Description: product.Description,
	}, quantity)
	return s.save(ctx, cartID, c)
}

func (s *service) Remove(ctx context.Context, cartID string, productID int64) (Snapshot, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return Snapshot{}, err
	}
	c.RemoveItem(productID)
	return s.save(ctx, cartID, c)
}

func (s *service) Clear(ctx context.Context, cartID string) (Snapshot, error) {
	if err := s.requireID(cartID); err != nil {
		return Snapshot{}, err
	}
	if err := s.repo.Delete(ctx, cartID); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return New(nil).Snapshot(), nil
}

func (s *service) load(ctx context.Context, cartID string) (*Cart, error) {
	if err := s.requireID(cartID); err != nil {
		return nil, err
	}
	items, err := s.repo.Load(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return New(items), nil
}

func (s *service) save(ctx context.Context, cartID string, c *Cart) (Snapshot, error) {
	if err := s.repo.Save(ctx, cartID, c.Items()); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return c.Snapshot(), nil
}

func (s *service) requireID(cartID string) error {
	if strings.TrimSpace(cartID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	return nil
}
