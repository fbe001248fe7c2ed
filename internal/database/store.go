package database

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/subnets-api/internal/config"
	"github.com/noah-isme/subnets-api/internal/store"
)

// OpenStore builds the key-value store selected by cfg.StoreDriver. redisClient is
// required for the redis driver and ignored otherwise.
func OpenStore(cfg config.Config, redisClient *redis.Client) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		return store.NewRedisStore(redisClient, cfg.RedisNamespace), nil
	case config.StorePostgres:
		db, err := ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewSQLStore(db)
	case config.StoreSQLite:
		db, err := ConnectSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewSQLStore(db)
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
