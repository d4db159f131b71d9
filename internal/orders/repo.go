package orders

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tortasnery/storefront/internal/repo"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
)

// Repository persists orders and their items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// Create inserts the order row and then its items with the new order id.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	items := order.Items
	order.Items = nil
	if err := r.DB(ctx).Create(order).Error; err != nil {
		order.Items = items
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&order.Items).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns every order newest first, items included.
func (r *Repository) List(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).Preload("Items").Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).Preload("Items").
		Where("LOWER(customer_email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// Recent returns the newest orders without items.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error {
	res := r.DB(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
