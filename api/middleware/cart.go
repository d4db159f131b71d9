package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tortasnery/storefront/pkg/logger"
)

const (
	CartIDHeader = "X-Cart-Id"
	CartCookie   = "cart_id"
)

// CartID resolves the anonymous cart id from the header or cookie, issuing a
// new one when neither is present. The id is echoed back on every response.
func CartID(ttl time.Duration, secure bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(CartIDHeader))
			if id == "" {
				if c, err := r.Cookie(CartCookie); err == nil {
					id = strings.TrimSpace(c.Value)
				}
			}
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CartCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(CartIDHeader, id)

			ctx := WithCartID(r.Context(), id)
			if logg != nil {
				ctx = logg.WithCartID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
