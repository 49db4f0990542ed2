package database

import (
	"context"
	"fmt"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	redisPingAttempts = 3
	redisPingTimeout  = 2 * time.Second
	redisPingBackoff  = time.Second
)

// InitRedis connects the client that fans attempt events out across instances.
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(redisOptions(cfg))
	if err := pingRedis(context.Background(), rdb, redisPingAttempts, redisPingBackoff); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", rdb.Options().Addr, err)
	}

	logger.Log.Info("Redis connection established", zap.String("addr", rdb.Options().Addr), zap.Int("db", cfg.DB))
	return rdb, nil
}

func redisOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  redisPingTimeout,
	}
}

// pingRedis retries with linear backoff until the server answers, attempts run out or ctx ends.
func pingRedis(ctx context.Context, rdb redis.Cmdable, attempts int, backoff time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err = rdb.Ping(pctx).Err()
		cancel()
		if err == nil {
			return nil
		}
		logger.Log.Warn("Redis ping failed", zap.Int("attempt", i), zap.Int("of", attempts), zap.Error(err))
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i) * backoff):
		}
	}
	return err
}
