package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tortasnery/storefront/internal/repo"
	"github.com/tortasnery/storefront/pkg/db/models"
)

// Repository reads and writes the singleton settings row.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Find(ctx context.Context) (*models.StoreSettings, error) {
	var row models.StoreSettings
	if err := r.DB(ctx).First(&row, "id = ?", models.StoreSettingsID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert writes row with id 1, replacing every column on conflict.
func (r *Repository) Upsert(ctx context.Context, row *models.StoreSettings) error {
	row.ID = models.StoreSettingsID
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"store_name", "contact_email", "contact_phone", "address", "logo", "updated_at"}),
	}).Create(row).Error
}
