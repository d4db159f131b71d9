package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tortasnery/storefront/api/responses"
	pkgAuth "github.com/tortasnery/storefront/pkg/auth"
	"github.com/tortasnery/storefront/pkg/auth/session"
	"github.com/tortasnery/storefront/pkg/config"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

// Auth requires a valid session token from the Authorization header or the
// session cookie and seeds the request context with its claims.
func Auth(cfg config.JWTConfig, verifier session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verify(r, cfg, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(attachSession(r.Context(), claims, logg)))
		})
	}
}

// OptionalAuth attaches a session when one is presented and valid; anonymous
// or broken credentials pass through untouched.
func OptionalAuth(cfg config.JWTConfig, verifier session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r, cfg.CookieName) == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := verify(r, cfg, verifier)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(attachSession(r.Context(), claims, logg)))
		})
	}
}

func verify(r *http.Request, cfg config.JWTConfig, verifier session.Checker) (*pkgAuth.SessionClaims, error) {
	token := bearerToken(r, cfg.CookieName)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier != nil {
		ok, err := verifier.HasSession(r.Context(), claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return claims, nil
}

// bearerToken prefers the Authorization header over the cookie.
func bearerToken(r *http.Request, cookieName string) string {
	if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func attachSession(ctx context.Context, claims *pkgAuth.SessionClaims, logg *logger.Logger) context.Context {
	ctx = WithSession(ctx, claims)
	if logg != nil {
		ctx = logg.WithUserID(ctx, claims.UserID)
		ctx = logg.WithRole(ctx, claims.Role.String())
	}
	return ctx
}
