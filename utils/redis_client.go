package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/docqa/config"
)

// NewRedisClient builds a client from REDIS_URL, or from REDIS_HOST/PORT/DB/PASSWORD.
// It returns nil, nil when neither is configured; Redis is optional.
func NewRedisClient(cfg config.AppConfig) (*redis.Client, error) {
	var opts *redis.Options
	switch {
	case cfg.RedisURL != "":
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		opts = parsed
	case cfg.RedisHost != "":
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	default:
		return nil, nil
	}
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// Keep the client: callers fall back per request while Redis is down.
		Sugar.Warnf("redis ping failed addr=%s err=%v", opts.Addr, err)
	}
	return client, nil
}
