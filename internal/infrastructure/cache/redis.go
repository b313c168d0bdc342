package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	connectTimeout = 5 * time.Second

	// Slot cache and token lookups sit on the request path; a slow Redis
	// must fail fast so callers fall back to PostgreSQL.
	commandTimeout = 2 * time.Second
)

// clientOptions maps RedisConfig onto go-redis options.
func clientOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  commandTimeout,
		WriteTimeout: commandTimeout,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	return opts
}

// NewRedisClient connects to the Redis instance backing the slot cache and
// the token store.
func NewRedisClient(cfg config.RedisConfig, log *logrus.Logger) (*redis.Client, error) {
	opts := clientOptions(cfg)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	log.WithFields(logrus.Fields{
		"addr":      opts.Addr,
		"db":        opts.DB,
		"pool_size": opts.PoolSize,
	}).Info("Connected to Redis")

	return client, nil
}
