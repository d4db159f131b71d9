package middleware

import (
	"context"

	pkgAuth "github.com/tortasnery/storefront/pkg/auth"
	"github.com/tortasnery/storefront/pkg/enums"
)

type contextKey string

const (
	ctxSession contextKey = "session"
	ctxCartID  contextKey = "cart_id"
)

// WithSession attaches verified claims to ctx.
func WithSession(ctx context.Context, claims *pkgAuth.SessionClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, claims)
}

// SessionFromContext returns the claims attached by Auth or OptionalAuth.
func SessionFromContext(ctx context.Context) *pkgAuth.SessionClaims {
	if ctx == nil {
		return nil
	}
	claims, _ := ctx.Value(ctxSession).(*pkgAuth.SessionClaims)
	return claims
}

func UserIDFromContext(ctx context.Context) int64 {
	if claims := SessionFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if claims := SessionFromContext(ctx); claims != nil {
		return claims.Role
	}
	return ""
}

func WithCartID(ctx context.Context, cartID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartID, cartID)
}

func CartIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxCartID).(string)
	return v
}
