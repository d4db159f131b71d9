package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLimiter struct {
	counts map[string]int64
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func loginRequest(email, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`","password":"x"}`))
	req.RemoteAddr = ip + ":5000"
	return req
}

func TestAuthRateLimitBlocksPerEmail(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 100, 2)
	var bodies []string
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(raw))
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("Ana@Example.com", "10.0.0.1"))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(" ana@example.com ", "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[0], "Ana@Example.com", "body must be restored for the handler")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("luis@example.com", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitBlocksPerIP(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	handler := AuthRateLimit(NewAuthRateLimitPolicy("register", time.Minute, 1, 0), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a@example.com", "10.0.0.9"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	req := loginRequest("b@example.com", "127.0.0.1")
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 172.16.0.1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuthRateLimitDisabledWithoutLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 1, 1), nil, nil)(next)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("a@example.com", "10.0.0.1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
