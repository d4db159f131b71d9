package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
)

// QueryInt reads an optional integer query parameter bounded to [min, max].
func QueryInt(r *http.Request, key string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(key, "must be numeric", nil)
	}
	if value < min || value > max {
		return 0, fieldError(key, "out of range", map[string]any{"min": min, "max": max})
	}
	return value, nil
}

// QuerySlug returns a lower-cased, trimmed filter value such as ?category=.
func QuerySlug(r *http.Request, key string) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
}

// PathID parses a positive integer chi route parameter.
func PathID(r *http.Request, param string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, param)), 10, 64)
	if err != nil || value <= 0 {
		return 0, fieldError(param, "must be a positive id", nil)
	}
	return value, nil
}

func fieldError(field, problem string, extra map[string]any) error {
	details := map[string]any{"field": field}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, field+" "+problem).WithDetails(details)
}
