package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingStorage struct{}

func (failingStorage) Increment(context.Context, string, time.Duration) (int, error) {
	return 0, errors.New("redis down")
}
func (failingStorage) Name() string { return "failing" }

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.POST("/test/suite/:suite", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	r := newRouter(NewRequestIDMiddleware().Middleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test/suite/a", nil))
	assert.Regexp(t, `^req-`, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodPost, "/test/suite/a", nil)
	req.Header.Set(RequestIDHeader, "ci-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "ci-42", w.Header().Get(RequestIDHeader))
}

func TestRateLimitInMemory(t *testing.T) {
	cfg := &RateLimitConfig{MaxRequests: 2, BurstSize: 1, Window: time.Minute, KeyPrefix: "test"}
	rl := NewRateLimitMiddlewareWithStorage(cfg, NewInMemoryRateLimiter(), logger.NewNop())
	r := newRouter(NewRequestIDMiddleware().Middleware(), rl.GinRateLimit())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test/suite/a", nil))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}

	// suite name is part of the path but not of the route template
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test/suite/b", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.False(t, body.Status)
	assert.NotEmpty(t, body.RequestID)
}

func TestInMemoryRateLimiterWindowExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewInMemoryRateLimiter()
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	n, _ := limiter.Increment(ctx, "k", time.Second)
	assert.Equal(t, 1, n)
	n, _ = limiter.Increment(ctx, "k", time.Second)
	assert.Equal(t, 2, n)

	now = now.Add(2 * time.Second)
	n, _ = limiter.Increment(ctx, "k", time.Second)
	assert.Equal(t, 1, n)
}

func TestRateLimitStorageFailureAllowsRequest(t *testing.T) {
	cfg := &RateLimitConfig{MaxRequests: 0, Window: time.Minute, KeyPrefix: "test"}
	rl := NewRateLimitMiddlewareWithStorage(cfg, failingStorage{}, logger.NewNop())
	r := newRouter(rl.GinRateLimit())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test/suite/a", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryReturnsErrorEnvelope(t *testing.T) {
	r := newRouter(
		NewRequestIDMiddleware().Middleware(),
		NewLoggingMiddleware(logger.NewNop()).GinLogRequest,
		NewRecoveryMiddleware(logger.NewNop()).GinRecover,
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Message)
}

func TestSecurityHeaders(t *testing.T) {
	r := newRouter(NewSecurityMiddleware(false).GinSecurityHeaders)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test/suite/a", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}
