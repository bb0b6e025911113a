package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stellarelay/internal/config"
	"stellarelay/internal/logger"
)

type CacheConnector struct {
	Config *config.Config
	Logger logger.Logger
}

func NewCacheConnector(cfg *config.Config, log logger.Logger) *CacheConnector {
	return &CacheConnector{
		Config: cfg,
		Logger: log,
	}
}

// InitRedis connects the optional discovery cache backend. Returns nil when
// the relay is configured for the in-memory cache.
func (cc *CacheConnector) InitRedis(ctx context.Context) (*redis.Client, error) {
	if cc.Config.Lookup.Cache.Backend != config.CacheBackendRedis {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cc.Config.Lookup.Cache.Redis.Host, cc.Config.Lookup.Cache.Redis.Port),
		Password: cc.Config.Lookup.Cache.Redis.Password,
		DB:       cc.Config.Lookup.Cache.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	cc.Logger.Info("Redis connected successfully")
	return rdb, nil
}

func (cc *CacheConnector) ShutdownCache(redisClient *redis.Client) []error {
	var errs []error

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}

	return errs
}
