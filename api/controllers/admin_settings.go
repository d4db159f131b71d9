package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/tortasnery/storefront/api/responses"
	"github.com/tortasnery/storefront/internal/settings"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

const settingsFormMemory = 8 << 20

// AdminUpdateSettings accepts multipart/form-data with the profile fields and
// an optional "logo" file.
func AdminUpdateSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, settings.MaxLogoBytes+settingsFormMemory)
		if err := r.ParseMultipartForm(settingsFormMemory); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		input := settings.Input{
			StoreName:    r.FormValue("storeName"),
			ContactEmail: r.FormValue("contactEmail"),
			ContactPhone: r.FormValue("contactPhone"),
			Address:      r.FormValue("address"),
		}

		logo, err := readLogo(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), input, logo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func readLogo(r *http.Request) (*settings.Logo, error) {
	file, header, err := r.FormFile("logo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid logo upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, settings.MaxLogoBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read logo")
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &settings.Logo{Filename: strings.TrimSpace(header.Filename), Data: data}, nil
}
