package products

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/db/models"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

const (
	// MaxFeatured caps how many products the landing page highlights.
	MaxFeatured = 6

	DefaultImageURL = "/img/logo.jpg"

	msgFeaturedCap = "Máximo 6 productos destacados permitidos"

	importSlugAttempts = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type categoryResolver interface {
	Resolve(ctx context.Context, ref string) (*models.Category, error)
}

// ListParams select storefront or admin listings.
type ListParams struct {
	Category        string
	IncludeInactive bool
}

type Service interface {
	Create(ctx context.Context, input Input) (*models.Product, error)
	Update(ctx context.Context, id int64, input Input) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	GetBySlug(ctx context.Context, ref string) (*models.Product, error)
	List(ctx context.Context, params ListParams) ([]models.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Product, error)
	ToggleFeatured(ctx context.Context, id int64, featured bool) (*models.Product, error)
	BackfillSlugs(ctx context.Context) (BackfillResult, error)
	Import(ctx context.Context, rows []ImportRow) (ImportResult, error)
}

type service struct {
	repo       *Repository
	tx         txRunner
	categories categoryResolver
	logg       *logger.Logger
	now        func() time.Time
	suffix     func() int
}

func NewService(repo *Repository, tx txRunner, categories categoryResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category resolver required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		categories: categories,
		logg:       logg,
		now:        time.Now,
		suffix:     func() int { return rand.IntN(10000) },
	}, nil
}

func validateInput(input Input) error {
	details := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "is required"
	}
	if input.Price.IsNegative() {
		details["price"] = "must be at least 0"
	}
	if input.Stock < 0 {
		details["stock"] = "must be at least 0"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

// resolveCategory maps an empty reference to no category and an unknown
// one to a validation error.
func (s *service) resolveCategory(ctx context.Context, ref string) (*int64, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, nil
	}
	category, err := s.categories.Resolve(ctx, ref)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown category").
				WithDetails(map[string]string{"category": ref})
		}
		return nil, err
	}
	return &category.ID, nil
}

// Create derives the slug from the name unless one is supplied and appends
// the current unix millis when it is already taken, either at the check or
// at insert.
func (s *service) Create(ctx context.Context, input Input) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	base := input.Slug
	if strings.TrimSpace(base) == "" {
		base = input.Name
	}
	slug := Slugify(base)
	if slug != "" {
		taken, err := s.repo.SlugTaken(ctx, slug, 0)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product slug")
		}
		if taken {
			slug = fmt.Sprintf("%s-%d", slug, s.now().UnixMilli())
		}
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  categoryID,
		ImageURL:    input.ImageURL,
		IsActive:    true,
		Rating:      decimal.NewFromInt(5),
	}
	if product.ImageURL == "" {
		product.ImageURL = DefaultImageURL
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if slug != "" {
		product.Slug = &slug
	}

	err = s.repo.Create(ctx, product)
	if err != nil && slug != "" && db.IsUniqueViolation(err, "slug") {
		// Another writer took the slug after the check; retry once.
		slug = fmt.Sprintf("%s-%d", slug, s.now().UnixMilli())
		product.ID = 0
		product.Slug = &slug
		err = s.repo.Create(ctx, product)
	}
	if err != nil {
		return nil, mapWriteError(err, "create product")
	}
	if slug == "" {
		fallback := fmt.Sprintf("product-%d", product.ID)
		if err := s.repo.UpdateSlug(ctx, product.ID, fallback); err != nil {
			return nil, mapWriteError(err, "assign product slug")
		}
	}
	return s.GetByID(ctx, product.ID)
}

// Update keeps the stored slug unless an explicit one is supplied.
func (s *service) Update(ctx context.Context, id int64, input Input) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Slug) != "" {
		slug := Slugify(input.Slug)
		taken, err := s.repo.SlugTaken(ctx, slug, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product slug")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists").
				WithDetails(map[string]string{"slug": slug})
		}
		existing.Slug = &slug
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = input.Description
	existing.Price = input.Price
	existing.Stock = input.Stock
	existing.CategoryID = categoryID
	if input.ImageURL != "" {
		existing.ImageURL = input.ImageURL
	}
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, mapWriteError(err, "update product")
	}
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapWriteError(err, "delete product")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err, "load product")
	}
	return product, nil
}

// GetBySlug tries a numeric reference as an id first, then as a slug.
func (s *service) GetBySlug(ctx context.Context, ref string) (*models.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product reference is required")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		product, err := s.repo.FindByID(ctx, id)
		if err == nil {
			return product, nil
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
	}
	product, err := s.repo.FindBySlug(ctx, ref)
	if err != nil {
		return nil, mapReadError(err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.Product, error) {
	rows, err := s.repo.List(ctx, ListFilter{
		CategorySlug: strings.ToLower(strings.TrimSpace(params.Category)),
		ActiveOnly:   !params.IncludeInactive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *service) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > MaxFeatured {
		limit = MaxFeatured
	}
	rows, err := s.repo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return rows, nil
}

// ToggleFeatured enforces the featured cap. The count and the write share a
// transaction. Unfeaturing always succeeds.
func (s *service) ToggleFeatured(ctx context.Context, id int64, featured bool) (*models.Product, error) {
	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapReadError(err, "load product")
		}
		if featured && !current.IsFeatured {
			count, err := repo.CountFeatured(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count featured products")
			}
			if featuredSlotsLeft(count) == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, msgFeaturedCap)
			}
		}
		if err := repo.SetFeatured(ctx, id, featured); err != nil {
			return mapWriteError(err, "update featured flag")
		}
		product, err = repo.FindByID(ctx, id)
		if err != nil {
			return mapReadError(err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// BackfillSlugs rewrites empty or numeric slugs. Per-row failures are
// collected and do not stop the scan.
func (s *service) BackfillSlugs(ctx context.Context) (BackfillResult, error) {
	rows, err := s.repo.ListForBackfill(ctx)
	if err != nil {
		return BackfillResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products for slug backfill")
	}

	result := BackfillResult{Scanned: len(rows)}
	var errs error
	for _, row := range rows {
		if !needsBackfill(row.Slug) {
			continue
		}
		slug := Slugify(row.Name)
		if slug == "" {
			slug = fmt.Sprintf("product-%d", row.ID)
		}
		taken, err := s.repo.SlugTaken(ctx, slug, row.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %d: %w", row.ID, err))
			continue
		}
		if taken {
			slug = fmt.Sprintf("%s-%d", slug, row.ID)
		}
		if err := s.repo.UpdateSlug(ctx, row.ID, slug); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %d: %w", row.ID, err))
			continue
		}
		result.Updated++
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"scanned": result.Scanned,
			"updated": result.Updated,
			"failed":  len(multierr.Errors(errs)),
		}), "products.slug_backfill")
	}
	if errs != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "slug backfill incomplete")
	}
	return result, nil
}

// Import creates products from an uploaded list in one transaction. Rows
// without a name or a positive price are skipped. Slugs get a random
// numeric suffix, and featured rows stop being featured once the cap is
// reached.
func (s *service) Import(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	categoryIDs, err := s.importCategories(ctx, rows)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		featuredCount, err := repo.CountFeatured(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count featured products")
		}
		slots := featuredSlotsLeft(featuredCount)

		for _, row := range rows {
			name := strings.TrimSpace(row.Name)
			if name == "" || row.Price == nil || !row.Price.IsPositive() {
				result.Skipped++
				continue
			}

			slug, err := s.importSlug(ctx, repo, name)
			if err != nil {
				return err
			}
			if slug == "" {
				result.Skipped++
				continue
			}

			product := &models.Product{
				Name:        name,
				Description: row.Description,
				Price:       *row.Price,
				Stock:       max(row.Stock, 0),
				CategoryID:  categoryIDs[strings.TrimSpace(row.Category)],
				ImageURL:    row.ImageURL,
				Slug:        &slug,
				IsActive:    true,
				Rating:      decimal.NewFromInt(5),
			}
			if product.ImageURL == "" {
				product.ImageURL = DefaultImageURL
			}
			if row.Featured && slots > 0 {
				product.IsFeatured = true
				slots--
			}
			if err := repo.Create(ctx, product); err != nil {
				return mapWriteError(err, "import product")
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// importCategories resolves each distinct category reference once. Unknown
// references import the product without a category.
func (s *service) importCategories(ctx context.Context, rows []ImportRow) (map[string]*int64, error) {
	ids := make(map[string]*int64)
	for _, row := range rows {
		ref := strings.TrimSpace(row.Category)
		if ref == "" {
			continue
		}
		if _, seen := ids[ref]; seen {
			continue
		}
		category, err := s.categories.Resolve(ctx, ref)
		switch {
		case err == nil:
			ids[ref] = &category.ID
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			ids[ref] = nil
		default:
			return nil, err
		}
	}
	return ids, nil
}

// importSlug checks availability before inserting so a collision never
// aborts the surrounding transaction.
func (s *service) importSlug(ctx context.Context, repo *Repository, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "product"
	}
	for range importSlugAttempts {
		candidate := fmt.Sprintf("%s-%d", base, s.suffix())
		taken, err := repo.SlugTaken(ctx, candidate, 0)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product slug")
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", nil
}

// featuredSlotsLeft reports how many more products may be featured when count
// already are.
func featuredSlotsLeft(count int64) int64 {
	return max(MaxFeatured-count, 0)
}

func mapWriteError(err error, op string) error {
	switch {
	case db.IsUniqueViolation(err, "slug"):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product slug already exists")
	case db.IsNotFound(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	case pkgerrors.As(err) != nil:
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func mapReadError(err error, op string) error {
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
