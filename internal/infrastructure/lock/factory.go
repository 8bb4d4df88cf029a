package lock

import (
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New returns a redis-backed locker when a client is given, a local one otherwise.
func New(client redis.UniversalClient, cfg config.LockConfig, logger *zap.Logger) shared.Locker {
	if client != nil {
		return NewRedisLocker(client, cfg, logger)
	}
	logger.Warn("redis disabled, customer account locks are process-local")
	return NewLocalLocker()
}
