package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartIDIssuesAndReusesIdentifier(t *testing.T) {
	var seen string
	handler := CartID(time.Hour, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(CartIDHeader))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CartCookie, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartCookie, Value: seen})
	first := seen
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, first, seen)

	header := uuid.NewString()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartIDHeader, header)
	req.AddCookie(&http.Cookie{Name: CartCookie, Value: first})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, header, seen)
}

func TestCartIDReplacesMalformedValue(t *testing.T) {
	var seen string
	handler := CartID(time.Hour, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CartIDHeader, "../../etc")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "../../etc", seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}
