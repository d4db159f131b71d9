package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/tortasnery/storefront/pkg/auth"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/enums"
)

type stubChecker struct {
	sessions map[string]bool
}

func (s stubChecker) HasSession(_ context.Context, id string) (bool, error) {
	return s.sessions[id], nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "tortasnery",
		ExpirationMinutes: 60,
		CookieName:        "admin_session",
	}
}

func mint(t *testing.T, cfg config.JWTConfig, role enums.UserRole) (string, *pkgAuth.SessionClaims) {
	t.Helper()
	token, claims, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.SessionPayload{
		UserID: 42,
		Email:  "ana@example.com",
		Role:   role,
		Name:   "Ana",
	})
	require.NoError(t, err)
	return token, claims
}

func echoSession(t *testing.T, seen **pkgAuth.SessionClaims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	cfg := testJWTConfig()
	token, claims := mint(t, cfg, enums.UserRoleAdmin)
	checker := stubChecker{sessions: map[string]bool{claims.ID: true}}

	var seen *pkgAuth.SessionClaims
	handler := Auth(cfg, checker, nil)(echoSession(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.EqualValues(t, 42, seen.UserID)
	assert.Equal(t, enums.UserRoleAdmin, seen.Role)
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	cfg := testJWTConfig()
	token, claims := mint(t, cfg, enums.UserRoleCliente)
	checker := stubChecker{sessions: map[string]bool{claims.ID: true}}

	var seen *pkgAuth.SessionClaims
	handler := Auth(cfg, checker, nil)(echoSession(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, enums.UserRoleCliente, seen.Role)
}

func TestAuthRejectsRevokedOrMissingSession(t *testing.T) {
	cfg := testJWTConfig()
	token, _ := mint(t, cfg, enums.UserRoleAdmin)

	var seen *pkgAuth.SessionClaims
	handler := Auth(cfg, stubChecker{}, nil)(echoSession(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestAuthRejectsForeignSignature(t *testing.T) {
	cfg := testJWTConfig()
	other := cfg
	other.Secret = "other"
	token, _ := mint(t, other, enums.UserRoleAdmin)

	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthPassesAnonymousAndInvalid(t *testing.T) {
	cfg := testJWTConfig()
	var seen *pkgAuth.SessionClaims
	handler := OptionalAuth(cfg, nil, nil)(echoSession(t, &seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)

	token, _ := mint(t, cfg, enums.UserRoleCliente)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.NotNil(t, seen)
	assert.EqualValues(t, 42, seen.UserID)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RequireRole(enums.UserRoleAdmin, nil)(ok)

	cases := []struct {
		name   string
		claims *pkgAuth.SessionClaims
		status int
	}{
		{name: "anonymous", claims: nil, status: http.StatusUnauthorized},
		{name: "customer", claims: &pkgAuth.SessionClaims{UserID: 1, Role: enums.UserRoleCliente}, status: http.StatusForbidden},
		{name: "admin", claims: &pkgAuth.SessionClaims{UserID: 1, Role: enums.UserRoleAdmin}, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.claims != nil {
				req = req.WithContext(WithSession(req.Context(), tc.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
