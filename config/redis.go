package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisNotConfigured is returned when no Redis address is set; callers
// fall back to the in-process cache and disable the job API.
var ErrRedisNotConfigured = errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")

func NewRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	val := cfg.RedisTarget()
	if val == "" {
		return nil, ErrRedisNotConfigured
	}

	var rdb *redis.Client
	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		opt, err := redis.ParseURL(val)
		if err != nil {
			return nil, err
		}
		rdb = redis.NewClient(opt)
	} else {
		rdb = redis.NewClient(&redis.Options{Addr: val})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
