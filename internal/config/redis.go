package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedis connects to REDIS_ADDR. It returns nil when no address is set or
// the server does not answer a ping; callers treat nil as "no Redis".
func (c RedisConfig) NewRedis(ctx context.Context, log zerolog.Logger) *redis.Client {
	if c.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, credential rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", c.Addr).Msg("⚠️ redis unreachable, credential rate limiting disabled")
		client.Close()
		return nil
	}
	log.Info().Str("addr", c.Addr).Msg("✅ redis connected")
	return client
}
