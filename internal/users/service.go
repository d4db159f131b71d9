package users

import (
	"context"
	"fmt"

	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/db/models"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
)

// Service is the admin user-management surface.
type Service interface {
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, actorID, id int64) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return rows, nil
}

// Delete removes a user. An admin cannot delete their own account.
func (s *service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeValidation, "No puedes eliminar tu propia cuenta")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}
