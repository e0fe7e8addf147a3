package cache

import (
	"context"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"test-orchestrator/internal/shared/logger"
)

// Redis wraps the redis client shared by rate limiting and readiness checks
type Redis struct {
	Client *redis.Client
	logger *logger.Logger
}

// Config holds the Redis connection options
type Config struct {
	URL             string
	PoolSize        int
	MinIdleConns    int
	ConnMaxIdleTime time.Duration
	DialTimeout     time.Duration
}

// DefaultConfig returns pool settings suitable for a single orchestrator instance
func DefaultConfig(url string) *Config {
	return &Config{
		URL:             url,
		PoolSize:        10,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
	}
}

// New connects to Redis and verifies the connection with a ping
func New(cfg *Config, log *logger.Logger) (*Redis, error) {
	log = log.Named("redis")

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.IdleTimeout = cfg.ConnMaxIdleTime
	opt.DialTimeout = cfg.DialTimeout

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info("Successfully connected to Redis", zap.String("addr", opt.Addr))

	return &Redis{Client: client, logger: log}, nil
}

// Ping checks that Redis is reachable
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.Client.Close()
}
