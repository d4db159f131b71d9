package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Slug is unique; CategoryID is a weak
// reference that the database nulls when the category goes away.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CategoryID  *int64          `gorm:"column:category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Stock       int             `gorm:"column:stock;not null"`
	ImageURL    string          `gorm:"column:image_url"`
	Slug        *string         `gorm:"column:slug;uniqueIndex"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	IsFeatured  bool            `gorm:"column:is_featured;not null"`
	Rating      decimal.Decimal `gorm:"column:rating;type:numeric(2,1);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// SlugValue returns the slug or an empty string for legacy rows.
func (p Product) SlugValue() string {
	if p.Slug == nil {
		return ""
	}
	return *p.Slug
}
