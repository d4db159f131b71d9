package categories

import (
	"time"

	"github.com/tortasnery/storefront/pkg/db/models"
)

type CategoryDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	ProductCount *int64    `json:"productCount,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func FromModel(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug, CreatedAt: c.CreatedAt}
}

// FromCounted keeps the product count for the admin listing.
func FromCounted(rows []CategoryWithCount) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		dto := FromModel(row.Category)
		count := row.ProductCount
		dto.ProductCount = &count
		out = append(out, dto)
	}
	return out
}
