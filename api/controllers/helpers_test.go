package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

// newRequest builds a request routed with the given chi URL params.
func newRequest(ctx context.Context, method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, routeCtx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.True(t, env.Success, "expected success envelope")
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.False(t, env.Success)
	return env.Error
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}
