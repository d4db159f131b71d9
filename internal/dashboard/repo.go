package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tortasnery/storefront/internal/repo"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
)

// Repository runs the aggregate queries behind the admin dashboard.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Sales sums order totals, excluding cancelled orders.
func (r *Repository) Sales(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB(ctx).Model(&models.Order{}).
		Select("SUM(total_amount)").
		Where("status <> ?", enums.OrderStatusCancelled).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *Repository) CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Order{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

// CountCustomers counts distinct customer emails across all orders.
func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Order{}).Distinct("customer_email").Count(&n).Error
	return n, err
}
