package users

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tortasnery/storefront/internal/repo"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
)

// Repository exposes user persistence operations.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user newest first.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.DB(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.DB(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash).Error
}

// ExistsWithRole reports whether any user holds role.
func (r *Repository) ExistsWithRole(ctx context.Context, role enums.UserRole) (bool, error) {
	return r.Exists(ctx, &models.User{}, "role = ?", role)
}
