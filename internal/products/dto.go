package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tortasnery/storefront/pkg/db/models"
)

// Input is the admin create/update payload after decoding.
type Input struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	ImageURL    string
	Slug        string
	IsActive    *bool
}

// ImportRow is one element of a bulk import upload. Price is a pointer so
// a missing value can be told apart from zero.
type ImportRow struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int              `json:"stock"`
	Category    string           `json:"category"`
	ImageURL    string           `json:"image_url"`
	Featured    bool             `json:"featured"`
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type BackfillResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// ProductDTO is the public representation of a product.
type ProductDTO struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	CategoryID   *int64          `json:"categoryId"`
	CategoryName string          `json:"categoryName,omitempty"`
	CategorySlug string          `json:"categorySlug,omitempty"`
	ImageURL     string          `json:"imageUrl"`
	Slug         string          `json:"slug"`
	IsActive     bool            `json:"isActive"`
	IsFeatured   bool            `json:"isFeatured"`
	Rating       decimal.Decimal `json:"rating"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func FromModel(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		ImageURL:    p.ImageURL,
		Slug:        p.SlugValue(),
		IsActive:    p.IsActive,
		IsFeatured:  p.IsFeatured,
		Rating:      p.Rating,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		dto.CategoryName = p.Category.Name
		dto.CategorySlug = p.Category.Slug
	}
	return dto
}

func FromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, FromModel(p))
	}
	return out
}
