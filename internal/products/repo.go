package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/tortasnery/storefront/internal/repo"
	"github.com/tortasnery/storefront/pkg/db/models"
)

// ListFilter narrows catalog listings.
type ListFilter struct {
	CategorySlug string
	ActiveOnly   bool
}

// Repository persists products.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Omit("Category").Create(product).Error
}

// Update writes every editable column; the slug is included so an explicit
// override is persisted.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"stock":       product.Stock,
			"category_id": product.CategoryID,
			"image_url":   product.ImageURL,
			"slug":        product.Slug,
			"is_active":   product.IsActive,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.DB(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Preload("Category").Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SlugTaken reports whether another product already owns slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	return r.Exists(ctx, &models.Product{}, "slug = ? AND id <> ?", slug, exceptID)
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	q := r.DB(ctx).Model(&models.Product{}).Preload("Category")
	if filter.ActiveOnly {
		q = q.Where("products.is_active = ?", true)
	}
	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	var rows []models.Product
	err := q.Order("products.created_at DESC").Order("products.id DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).Preload("Category").
		Where("is_featured = ? AND is_active = ?", true, true).
		Order("updated_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CountFeatured(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("is_featured = ?", true).Count(&count).Error
	return count, err
}

func (r *Repository) SetFeatured(ctx context.Context, id int64, featured bool) error {
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_featured", featured)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) UpdateSlug(ctx context.Context, id int64, slug string) error {
	return r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Update("slug", slug).Error
}

// ListForBackfill returns id, name and slug of every product.
func (r *Repository) ListForBackfill(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).Select("id", "name", "slug").Order("id ASC").Find(&rows).Error
	return rows, err
}
