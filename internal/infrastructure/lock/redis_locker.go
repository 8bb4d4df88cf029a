// Package lock serializes work on a key, across processes through redis or
// inside one process when redis is disabled.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLocker takes redislock leases with linear retry.
type RedisLocker struct {
	client *redislock.Client
	cfg    config.LockConfig
	logger *zap.Logger
}

// NewRedisLocker builds a locker on an existing redis client.
func NewRedisLocker(client redis.UniversalClient, cfg config.LockConfig, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(client),
		cfg:    cfg,
		logger: logger.Named("lock"),
	}
}

// Acquire obtains the lease for key. The lease expires after the configured
// TTL even if the holder never releases it.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	retry := redislock.LimitRetry(redislock.LinearBackoff(l.cfg.RetryInterval), l.cfg.MaxRetries)
	lease, err := l.client.Obtain(ctx, key, l.cfg.TTL, &redislock.Options{RetryStrategy: retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn("lock not obtained", zap.String("key", key))
		return nil, shared.ErrConcurrencyConflict.WithDetail("lock", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	start := time.Now()
	return func(ctx context.Context) error {
		err := lease.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("lock expired before release",
				zap.String("key", key),
				zap.Duration("held", time.Since(start)),
			)
			return nil
		}
		return err
	}, nil
}

var _ shared.Locker = (*RedisLocker)(nil)
