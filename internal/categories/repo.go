package categories

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tortasnery/storefront/internal/repo"
	"github.com/tortasnery/storefront/pkg/db/models"
)

// CategoryWithCount carries the number of products referencing the category.
type CategoryWithCount struct {
	models.Category
	ProductCount int64 `gorm:"column:product_count"`
}

// Repository persists categories.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return r.DB(ctx).Create(category).Error
}

// Update writes name and slug only.
func (r *Repository) Update(ctx context.Context, category *models.Category) error {
	res := r.DB(ctx).Model(&models.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{"name": category.Name, "slug": category.Slug})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.DB(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByRef resolves a numeric id, then a slug, then a case-insensitive name.
func (r *Repository) FindByRef(ctx context.Context, ref string) (*models.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		category, err := r.FindByID(ctx, id)
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return category, err
		}
	}
	var category models.Category
	err := r.DB(ctx).Where("slug = ?", strings.ToLower(ref)).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := r.DB(ctx).Where("LOWER(name) = ?", strings.ToLower(ref)).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListWithCounts returns every category ordered by name.
func (r *Repository) ListWithCounts(ctx context.Context) ([]CategoryWithCount, error) {
	var rows []CategoryWithCount
	err := r.DB(ctx).
		Table("categories AS c").
		Select("c.*, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.category_id = c.id").
		Group("c.id").
		Order("c.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) HasProducts(ctx context.Context, categoryID int64) (bool, error) {
	return r.Exists(ctx, &models.Product{}, "category_id = ?", categoryID)
}
