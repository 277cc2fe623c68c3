package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
	newBackOff    = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		b.MaxInterval = 5 * time.Second
		b.MaxElapsedTime = 30 * time.Second
		return b
	}
)

// Connect opens a client for addr (host:port or a redis:// URL) and retries the
// initial ping with exponential backoff.
func Connect(ctx context.Context, addr string, logger *zap.SugaredLogger) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	err := backoff.RetryNotify(func() error {
		return pingRedis(ctx, client)
	}, backoff.WithContext(newBackOff(), ctx), func(err error, wait time.Duration) {
		logger.Warnw("redis ping failed, retrying", "error", err, "retry_in", wait.String())
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Infow("connected to redis", "addr", opts.Addr)
	return client, nil
}
