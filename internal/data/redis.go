package data

import (
	"context"
	"fmt"
	"time"

	"hazard/internal/conf"
	pkgredis "hazard/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
)

// NewRedisCache creates a new Redis cache from configuration. It returns a nil
// Cache when no URL is configured, which disables result caching.
func NewRedisCache(c *conf.Data, logger log.Logger) (pkgredis.Cache, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "data/redis"))

	redisConf := c.GetRedis()
	if redisConf.GetURL() == "" {
		helper.Warn("redis url not configured, result cache disabled")
		return nil, func() {}, nil
	}

	client, err := pkgredis.New(redisConf.URL, pkgredis.Options{
		ReadTimeout:  redisConf.ReadTimeout.AsDuration(),
		WriteTimeout: redisConf.WriteTimeout.AsDuration(),
	})
	if err != nil {
		return nil, nil, err
	}

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		client.Close()
		helper.Errorf("failed to connect to Redis: %v", err)
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	helper.Info("connected to Redis")

	cleanup := func() {
		helper.Info("closing Redis connection")
		client.Close()
	}

	return client, cleanup, nil
}
