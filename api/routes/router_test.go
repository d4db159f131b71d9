package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/api/controllers"
	"github.com/tortasnery/storefront/api/middleware"
	"github.com/tortasnery/storefront/internal/cart"
	"github.com/tortasnery/storefront/internal/dashboard"
	pkgAuth "github.com/tortasnery/storefront/pkg/auth"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubDashboard struct{}

func (stubDashboard) Stats(context.Context) (dashboard.Stats, error) {
	return dashboard.Stats{Sales: decimal.RequireFromString("150"), PendingOrders: 2, Products: 3, Customers: 1}, nil
}

func (stubDashboard) PendingCount(context.Context) (int64, error) { return 2, nil }

func (stubDashboard) RecentOrders(context.Context, int) ([]models.Order, error) { return nil, nil }

type stubProducts struct{}

func (stubProducts) GetByID(_ context.Context, id int64) (*models.Product, error) {
	if id != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Producto no encontrado")
	}
	return &models.Product{ID: 1, Name: "Wedding Classic", Price: decimal.RequireFromString("85"), IsActive: true}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test", CORSOrigins: "*"},
		JWT:  config.JWTConfig{Secret: "test-secret", Issuer: "tortasnery", ExpirationMinutes: 60, CookieName: "admin_session"},
		Cart: config.CartConfig{TTL: time.Hour},
		Store: config.StoreConfig{
			Name: "Tortas Nery", WhatsAppNumber: "51997935991", Currency: "S/",
		},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	carts, err := cart.NewService(cart.NewMemoryRepository(), stubProducts{}, logg)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	router := NewRouter(Dependencies{
		Config:    cfg,
		Logger:    logg,
		Health:    map[string]controllers.Pinger{"database": stubPinger{}},
		Gatherer:  reg,
		HTTP:      metrics.NewHTTPMetrics(reg),
		Cart:      carts,
		Dashboard: stubDashboard{},
	})
	return router, cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, _, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.SessionPayload{UserID: 5, Email: "x@example.com", Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router, cfg := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.UserRoleCliente))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.UserRoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pendingOrders":2`)
}

func TestCartRoundTripKeepsCookieIdentity(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":1,"quantity":2}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	cartID := rec.Header().Get(middleware.CartIDHeader)
	require.NotEmpty(t, cartID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CartCookie, Value: cartID})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
	assert.Contains(t, rec.Body.String(), `"total":"170"`)
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	router, _ := newTestRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health/live",status="200"} 1`)
}

func TestMissingServiceAnswersInternalError(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
