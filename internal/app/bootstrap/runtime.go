package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/careflow/internal/config"
	"github.com/wolfman30/careflow/internal/http/middleware"
	"github.com/wolfman30/careflow/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildInquiryLimiter throttles the public intake endpoints per client IP.
// Redis shares the budget across replicas; without it each process keeps its own.
func BuildInquiryLimiter(cfg *appconfig.Config, redisClient *redis.Client) middleware.Limiter {
	perSecond := cfg.InquiryRatePerMinute / 60
	if redisClient != nil {
		return middleware.NewRedisLimiter(redisClient, "careflow:ratelimit:intake", perSecond, cfg.InquiryBurst)
	}
	return middleware.NewRateLimiter(perSecond, cfg.InquiryBurst)
}
