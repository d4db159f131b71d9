package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/api/middleware"
	"github.com/tortasnery/storefront/internal/cart"
	"github.com/tortasnery/storefront/internal/orders"
	pkgAuth "github.com/tortasnery/storefront/pkg/auth"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
)

type stubOrderService struct {
	orders.Service
	created []orders.CreateInput
	byEmail string
}

func (s *stubOrderService) CreateOrder(_ context.Context, input orders.CreateInput) (orders.Created, error) {
	s.created = append(s.created, input)
	return orders.Created{OrderID: int64(len(s.created)), OrderNumber: "654321"}, nil
}

func (s *stubOrderService) ListByEmail(_ context.Context, email string) ([]models.Order, error) {
	s.byEmail = email
	return []models.Order{{ID: 9, OrderNumber: "111111", CustomerEmail: email, Status: enums.OrderStatusPending}}, nil
}

func testStore() config.StoreConfig {
	return config.StoreConfig{Name: "Tortas Nery", WhatsAppNumber: "51997935991", Currency: "S/"}
}

const customerJSON = `"customer":{"firstName":"Ana","lastName":"Pérez","email":"ana@example.com","phone":"999","eventDate":"2026-12-01","eventTime":"18:00","address":"Av. Lima 1"}`

func newCartService(t *testing.T, products *stubProductService) cart.Service {
	t.Helper()
	svc, err := cart.NewService(cart.NewMemoryRepository(), products, nil)
	require.NoError(t, err)
	return svc
}

func TestCheckoutUsesStoredCartAndClearsIt(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Wedding Classic", Price: decimal.RequireFromString("85"), IsActive: true}
	carts := newCartService(t, &stubProductService{byRef: map[string]*models.Product{"1": product}})
	cartID := uuid.NewString()
	ctx := middleware.WithCartID(context.Background(), cartID)
	_, err := carts.Add(ctx, cartID, 1, 2)
	require.NoError(t, err)

	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	Checkout(svc, carts, testStore(), testLogger()).ServeHTTP(rec,
		newRequest(ctx, http.MethodPost, "/api/v1/checkout", `{`+customerJSON+`}`, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body checkoutResponse
	decodeData(t, rec, &body)
	assert.EqualValues(t, 1, body.OrderID)
	assert.Equal(t, "654321", body.OrderNumber)
	assert.True(t, strings.HasPrefix(body.WhatsAppURL, "https://wa.me/51997935991?text="))

	require.Len(t, svc.created, 1)
	input := svc.created[0]
	assert.Equal(t, orders.SourceCart, input.Source)
	require.Len(t, input.Items, 1)
	assert.Equal(t, 2, input.Items[0].Quantity)
	assert.True(t, input.Total.Equal(decimal.RequireFromString("170")))

	snap, err := carts.Get(ctx, cartID)
	require.NoError(t, err)
	assert.Zero(t, snap.Count)
}

func TestCheckoutPayloadItemsAndSessionCustomer(t *testing.T) {
	svc := &stubOrderService{}
	ctx := middleware.WithSession(context.Background(), &pkgAuth.SessionClaims{UserID: 7, Role: enums.UserRoleCliente})
	body := `{` + customerJSON + `,"items":[{"productId":1,"name":"Floral Vintage XV","price":"65.00","quantity":1,"image":"/img.jpg"}]}`

	rec := httptest.NewRecorder()
	Checkout(svc, nil, testStore(), testLogger()).ServeHTTP(rec, newRequest(ctx, http.MethodPost, "/api/v1/checkout", body, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.created, 1)
	input := svc.created[0]
	assert.Equal(t, orders.SourcePayload, input.Source)
	assert.True(t, input.Total.Equal(decimal.RequireFromString("65")))
	require.NotNil(t, input.CustomerID)
	assert.EqualValues(t, 7, *input.CustomerID)
}

func TestCheckoutRejectsInvalidCustomer(t *testing.T) {
	svc := &stubOrderService{}
	body := `{"customer":{"firstName":"Ana","email":"nope"},"items":[{"name":"X","price":"1","quantity":1}]}`
	rec := httptest.NewRecorder()
	Checkout(svc, nil, testStore(), testLogger()).ServeHTTP(rec, newRequest(nil, http.MethodPost, "/api/v1/checkout", body, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeError(t, rec)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "customer.email")
	assert.Contains(t, details, "customer.lastName")
	assert.Empty(t, svc.created)
}

func TestMyOrdersUsesSessionEmail(t *testing.T) {
	svc := &stubOrderService{}

	rec := httptest.NewRecorder()
	MyOrders(svc, testLogger()).ServeHTTP(rec, newRequest(nil, http.MethodGet, "/api/v1/me/orders", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx := middleware.WithSession(context.Background(), &pkgAuth.SessionClaims{UserID: 3, Email: "ana@example.com", Role: enums.UserRoleCliente})
	rec = httptest.NewRecorder()
	MyOrders(svc, testLogger()).ServeHTTP(rec, newRequest(ctx, http.MethodGet, "/api/v1/me/orders", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana@example.com", svc.byEmail)

	var rows []orders.OrderDTO
	decodeData(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "pending", rows[0].Status)
}
