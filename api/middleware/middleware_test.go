package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Format: logger.FormatJSON, Output: io.Discard})
}

func TestRequestIDEchoesWellFormedValue(t *testing.T) {
	h := RequestID(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123.x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123.x", rec.Header().Get(requestIDHeader))

	for _, bad := range []string{"", "has space", "line\nbreak", strings.Repeat("a", maxRequestIDBytes+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, bad)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		got := rec.Header().Get(requestIDHeader)
		assert.NotEqual(t, bad, got)
		assert.Len(t, got, 36)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	h := Recoverer(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("oven on fire")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, rec.Body.String(), "oven on fire")
}

func TestRecovererReraisesAbort(t *testing.T) {
	h := Recoverer(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

type observation struct {
	route, method string
	status        int
}

type recordingObserver struct{ seen []observation }

func (o *recordingObserver) Observe(route, method string, status int, _ time.Duration) {
	o.seen = append(o.seen, observation{route, method, status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	obs := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Get("/products/{ref}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/wedding-classic", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Len(t, obs.seen, 2)
	assert.Equal(t, observation{"/products/{ref}", http.MethodGet, http.StatusTeapot}, obs.seen[0])
	assert.Equal(t, http.StatusNotFound, obs.seen[1].status)
}

func TestMetricsNilObserverIsPassthrough(t *testing.T) {
	called := false
	h := Metrics(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestCORSExposesCartHeader(t *testing.T) {
	h := CORS([]string{"https://tortasnery.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://tortasnery.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://tortasnery.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), CartIDHeader)
}
