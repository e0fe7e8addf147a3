package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"test-orchestrator/internal/shared/cache"
	"test-orchestrator/internal/shared/logger"
	"test-orchestrator/internal/shared/utils"
)

// RateLimitConfig holds the configuration for rate limiting
type RateLimitConfig struct {
	// MaxRequests is the number of requests allowed per client in one window
	MaxRequests int
	// Window is the counting window
	Window time.Duration
	// BurstSize is added on top of MaxRequests
	BurstSize int
	// KeyPrefix namespaces storage keys
	KeyPrefix string
}

// Limit is the effective per-window request ceiling
func (c *RateLimitConfig) Limit() int {
	return c.MaxRequests + c.BurstSize
}

// RateLimiterStorage counts requests per key within a window
type RateLimiterStorage interface {
	// Increment bumps the counter for key and returns the new count
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
	// Name identifies the backend in logs
	Name() string
}

// RedisRateLimiter stores counters in Redis so limits hold across orchestrator replicas
type RedisRateLimiter struct {
	client *cache.Redis
	logger *logger.Logger
}

// NewRedisRateLimiter creates a new Redis-based rate limiter
func NewRedisRateLimiter(redisClient *cache.Redis, log *logger.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: redisClient,
		logger: log.Named("redis-rate-limiter"),
	}
}

// Increment bumps the counter in one MULTI/EXEC. The key is seeded with its TTL
// only when absent, so a counter can never outlive its window.
func (r *RedisRateLimiter) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	pipe := r.client.Client.TxPipeline()
	pipe.SetNX(ctx, key, 0, window)
	incr := pipe.Incr(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to increment rate limit counter", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return int(incr.Val()), nil
}

func (r *RedisRateLimiter) Name() string { return "redis" }

// InMemoryRateLimiter keeps fixed-window counters in process memory
type InMemoryRateLimiter struct {
	mu   sync.Mutex
	data map[string]*rateLimitEntry
	now  func() time.Time
}

const sweepThreshold = 1024

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// NewInMemoryRateLimiter creates a new in-memory rate limiter
func NewInMemoryRateLimiter() *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		data: make(map[string]*rateLimitEntry),
		now:  time.Now,
	}
}

// Increment increments the counter for the given key
func (m *InMemoryRateLimiter) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.data) >= sweepThreshold {
		m.sweep(now)
	}

	entry, exists := m.data[key]
	if !exists || now.After(entry.expiresAt) {
		m.data[key] = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
		return 1, nil
	}

	entry.count++
	return entry.count, nil
}

func (m *InMemoryRateLimiter) Name() string { return "memory" }

// sweep drops expired counters; callers hold the lock
func (m *InMemoryRateLimiter) sweep(now time.Time) {
	for key, entry := range m.data {
		if now.After(entry.expiresAt) {
			delete(m.data, key)
		}
	}
}

// RateLimitMiddleware limits how often a client may trigger test runs
type RateLimitMiddleware struct {
	config          *RateLimitConfig
	storage         RateLimiterStorage
	logger          *logger.Logger
	responseHandler *utils.ResponseHandler
}

// NewRateLimitMiddleware picks Redis storage when a client is given, in-memory otherwise
func NewRateLimitMiddleware(config *RateLimitConfig, redisClient *cache.Redis, log *logger.Logger) *RateLimitMiddleware {
	var storage RateLimiterStorage
	if redisClient != nil {
		storage = NewRedisRateLimiter(redisClient, log)
	} else {
		storage = NewInMemoryRateLimiter()
	}
	return NewRateLimitMiddlewareWithStorage(config, storage, log)
}

// NewRateLimitMiddlewareWithStorage creates the middleware over an explicit storage backend
func NewRateLimitMiddlewareWithStorage(config *RateLimitConfig, storage RateLimiterStorage, log *logger.Logger) *RateLimitMiddleware {
	log = log.Named("rate-limit")
	log.Info("Rate limiting enabled",
		zap.String("storage", storage.Name()),
		zap.Int("limit", config.Limit()),
		zap.Duration("window", config.Window))

	return &RateLimitMiddleware{
		config:          config,
		storage:         storage,
		logger:          log,
		responseHandler: utils.NewResponseHandler(log),
	}
}

// GinRateLimit returns a Gin middleware function for rate limiting
func (m *RateLimitMiddleware) GinRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s:%s", m.config.KeyPrefix, clientIP, route)

		count, err := m.storage.Increment(c.Request.Context(), key, m.config.Window)
		if err != nil {
			// storage outages must not block test runs
			m.logger.Error("Failed to check rate limit", zap.Error(err))
			c.Next()
			return
		}

		limit := m.config.Limit()
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > limit {
			m.logger.Warn("Rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("route", route),
				zap.String("request_id", c.GetString("request_id")),
				zap.Int("count", count),
				zap.Int("limit", limit))

			c.Header("Retry-After", strconv.Itoa(int(m.config.Window.Seconds())))
			m.responseHandler.GinTooManyRequests(c, "Rate limit exceeded. Please try again later.")
			return
		}

		c.Next()
	}
}
