package middleware

import (
	"net/http"

	"github.com/tortasnery/storefront/api/responses"
	"github.com/tortasnery/storefront/pkg/enums"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

// RequireRole must run after Auth.
func RequireRole(role enums.UserRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch RoleFromContext(r.Context()) {
			case role:
				next.ServeHTTP(w, r)
			case "":
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			default:
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
			}
		})
	}
}
