package ratelimit

import (
	"errors"
	"strings"

	"github.com/musichub/musichub/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(
		provideRedisClient,
		NewTokenBucket,
		NewLocker,
		NewStreamIngestLimiter,
	),
)

// provideRedisClient returns nil when rate limiting is disabled; downstream
// constructors treat a nil client as "limiter off".
func provideRedisClient(cfg config.Config) (*redis.Client, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	}), nil
}
