// Package resultcache keeps analysis results in Redis between runs.
package resultcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultTTL  = 24 * time.Hour
	keyPrefix   = "resume-matcher:result:"
	pingTimeout = 3 * time.Second
)

// backend is the subset of the go-redis client the cache needs.
type backend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis is a result cache that degrades to a no-op when Redis is unreachable.
type Redis struct {
	client backend
	ttl    time.Duration
	logger *zap.Logger

	warnedUnavailable atomic.Bool
}

// New connects to redisURL. An unreachable server yields a disabled cache
// rather than an error; only a malformed URL fails.
func New(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, result cache disabled", zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return &Redis{ttl: ttl, logger: logger}, nil
	}

	logger.Info("result cache connected", zap.String("addr", opts.Addr), zap.Duration("ttl", ttl))
	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

func newWithBackend(client backend, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Enabled reports whether a Redis connection is in use.
func (r *Redis) Enabled() bool {
	return r != nil && r.client != nil
}

// Get returns the stored value. A missing key is not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !r.Enabled() {
		return nil, false, nil
	}

	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		r.warnUnavailableOnce(err)
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if !r.Enabled() {
		return nil
	}
	if err := r.client.Set(ctx, keyPrefix+key, value, r.ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis request failed, results may not be cached", zap.Error(err))
	}
}
