package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/db/models"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
)

const (
	msgDuplicate   = "La categoría o el slug ya existen"
	msgHasProducts = "No se puede eliminar una categoría que tiene productos asociados"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input is the admin payload for create and update.
type Input struct {
	Name string
	Slug string
}

type Service interface {
	Create(ctx context.Context, input Input) (*models.Category, error)
	Update(ctx context.Context, id int64, input Input) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]CategoryWithCount, error)
	Resolve(ctx context.Context, ref string) (*models.Category, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// DefaultSlug lowercases name and replaces spaces with dashes.
func DefaultSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func normalize(input Input) (Input, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	if input.Slug == "" {
		input.Slug = DefaultSlug(input.Name)
	}
	return input, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Category, error) {
	input, err := normalize(input)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: input.Name, Slug: input.Slug}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapWriteError(err, "create category")
	}
	return category, nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*models.Category, error) {
	input, err := normalize(input)
	if err != nil {
		return nil, err
	}
	category := &models.Category{ID: id, Name: input.Name, Slug: input.Slug}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, mapWriteError(err, "update category")
	}
	return s.Get(ctx, id)
}

// Delete refuses while any product still references the category. The check
// and the delete share a transaction.
func (s *service) Delete(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inUse, err := repo.HasProducts(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
		}
		if inUse {
			return pkgerrors.New(pkgerrors.CodeValidation, msgHasProducts)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return mapWriteError(err, "delete category")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err, "category not found", "load category")
	}
	return category, nil
}

func (s *service) List(ctx context.Context) ([]CategoryWithCount, error) {
	rows, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

// Resolve looks a category up by id, slug or name.
func (s *service) Resolve(ctx context.Context, ref string) (*models.Category, error) {
	category, err := s.repo.FindByRef(ctx, ref)
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("unknown category %q", strings.TrimSpace(ref)), "resolve category")
	}
	return category, nil
}

func mapWriteError(err error, op string) error {
	switch {
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, msgDuplicate)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "category not found")
	case pkgerrors.As(err) != nil:
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func mapReadError(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
