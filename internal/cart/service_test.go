package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/pkg/db/models"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
)

type stubProducts struct {
	products map[int64]*models.Product
}

func (s stubProducts) GetByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	copied := *p
	return &copied, nil
}

func newTestService(t *testing.T) (Service, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	svc, err := NewService(repo, stubProducts{products: map[int64]*models.Product{
		1: {ID: 1, Name: "Wedding Classic", Price: decimal.RequireFromString("85.00"), IsActive: true, ImageURL: "/img/logo.jpg"},
		2: {ID: 2, Name: "Floral Vintage XV", Price: decimal.RequireFromString("65.00"), IsActive: true},
		3: {ID: 3, Name: "Retirada", Price: decimal.RequireFromString("10.00"), IsActive: false},
	}}, nil)
	require.NoError(t, err)
	return svc, repo
}

func TestServiceAddPersistsAndMerges(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	_, err := svc.Add(ctx, "c1", 1, 1)
	require.NoError(t, err)
	snap, err := svc.Add(ctx, "c1", 1, 2)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Count)
	assert.Equal(t, "255.00", snap.Total.StringFixed(2))

	stored, err := repo.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].Quantity)
	assert.Equal(t, "Wedding Classic", stored[0].Name)
}

func TestServiceRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Add(ctx, "c1", 1, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "c1", 2, 2)
	require.NoError(t, err)

	snap, err := svc.Remove(ctx, "c1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, "130.00", snap.Total.StringFixed(2))

	snap, err = svc.Clear(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, snap.Count)

	snap, err = svc.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestServiceRejectsUnknownOrInactiveProducts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Add(ctx, "c1", 42, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(ctx, "c1", 3, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(ctx, "c1", 0, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceRequiresCartID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, stubProducts{}, nil)
	assert.Error(t, err)
	_, err = NewService(NewMemoryRepository(), nil, nil)
	assert.Error(t, err)
}
