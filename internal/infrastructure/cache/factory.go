package cache

import (
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the redis store when a client is available and
// the in-memory one otherwise.
func NewIdempotencyStore(client redis.UniversalClient, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("using redis idempotency store")
		return NewRedisIdempotencyStore(client, "")
	}
	logger.Warn("redis disabled, using in-memory idempotency store; handlers may run twice across instances")
	return NewInMemoryIdempotencyStore()
}
