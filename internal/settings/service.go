package settings

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/db/models"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/storage/gcs"
)

// MaxLogoBytes bounds an uploaded logo.
const MaxLogoBytes = 5 << 20

// Settings is the public store profile.
type Settings struct {
	StoreName    string    `json:"storeName"`
	ContactEmail string    `json:"contactEmail"`
	ContactPhone string    `json:"contactPhone"`
	Address      string    `json:"address"`
	Logo         string    `json:"logo"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
}

type Input struct {
	StoreName    string
	ContactEmail string
	ContactPhone string
	Address      string
}

// Logo is an uploaded file. Data holds the full content.
type Logo struct {
	Filename string
	Data     []byte
}

type Service interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, input Input, logo *Logo) (Settings, error)
}

type service struct {
	repo     *Repository
	uploader gcs.Uploader
	defaults Settings
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the settings service. uploader may be nil; logos are
// then stored inline as data URIs.
func NewService(repo *Repository, uploader gcs.Uploader, defaults Settings, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo, uploader: uploader, defaults: defaults, logg: logg, now: time.Now}, nil
}

// Get returns the stored settings or the defaults when none were saved.
func (s *service) Get(ctx context.Context) (Settings, error) {
	row, err := s.repo.Find(ctx)
	if err != nil {
		if db.IsNotFound(err) {
			return s.defaults, nil
		}
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store settings")
	}
	return fromModel(*row), nil
}

func (s *service) Update(ctx context.Context, input Input, logo *Logo) (Settings, error) {
	if strings.TrimSpace(input.StoreName) == "" {
		return Settings{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"storeName": "is required"})
	}

	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	row := &models.StoreSettings{
		StoreName:    strings.TrimSpace(input.StoreName),
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Address:      strings.TrimSpace(input.Address),
		Logo:         current.Logo,
	}
	if logo != nil && len(logo.Data) > 0 {
		if len(logo.Data) > MaxLogoBytes {
			return Settings{}, pkgerrors.Newf(pkgerrors.CodeValidation, "logo exceeds %d bytes", MaxLogoBytes)
		}
		row.Logo = s.storeLogo(ctx, *logo)
	}

	if err := s.repo.Upsert(ctx, row); err != nil {
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save store settings")
	}
	return s.Get(ctx)
}

// storeLogo uploads the file and falls back to an inline data URI when no
// blob store is configured or the upload fails.
func (s *service) storeLogo(ctx context.Context, logo Logo) string {
	mime := mimetype.Detect(logo.Data).String()
	if s.uploader != nil {
		object := LogoObjectName(logo.Filename, s.now())
		url, err := s.uploader.Upload(ctx, object, mime, bytes.NewReader(logo.Data))
		if err == nil {
			return url
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"object": object,
				"error":  err.Error(),
			}), "settings.logo_upload_failed")
		}
	} else if s.logg != nil {
		s.logg.Warn(ctx, "settings.logo_inline_no_blob_store")
	}
	return DataURI(mime, logo.Data)
}

// LogoObjectName is uploads/logo-<unix millis>-<filename with spaces as _>.
func LogoObjectName(filename string, at time.Time) string {
	name := strings.ReplaceAll(strings.TrimSpace(filename), " ", "_")
	if name == "" {
		name = "logo"
	}
	return fmt.Sprintf("uploads/logo-%d-%s", at.UnixMilli(), name)
}

func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func fromModel(row models.StoreSettings) Settings {
	return Settings{
		StoreName:    row.StoreName,
		ContactEmail: row.ContactEmail,
		ContactPhone: row.ContactPhone,
		Address:      row.Address,
		Logo:         row.Logo,
		UpdatedAt:    row.UpdatedAt,
	}
}
