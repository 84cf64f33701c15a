package web

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	// LoginAttempts is how many logins one email may attempt from one address per window.
	LoginAttempts = 5
	// LoginWindow is the rate limit window of login attempts.
	LoginWindow = 15 * time.Minute

	rateLimitPrefix = "ratelimit"
	storeTimeout    = 250 * time.Millisecond
)

// Limiter decides whether another attempt under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// StoreLimiter counts attempts in a limiter.Store; Redis shares counts across API
// instances, memory keeps them per process.
type StoreLimiter struct {
	store  limiter.Store
	logger *slog.Logger
}

var _ Limiter = (*StoreLimiter)(nil)

func NewMemoryLimiter(logger *slog.Logger) *StoreLimiter {
	return &StoreLimiter{
		store: memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: time.Minute,
		}),
		logger: logger,
	}
}

// NewRedisLimiter loads the limiter scripts into Redis, so it fails when Redis is unreachable.
func NewRedisLimiter(client *redis.Client, logger *slog.Logger) (*StoreLimiter, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   rateLimitPrefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}

	return &StoreLimiter{store: store, logger: logger}, nil
}

// Allow fails open when the store errors.
func (l *StoreLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	rate := limiter.Rate{Period: window, Limit: int64(limit)}

	result, err := limiter.New(l.store, rate).Get(ctx, key)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable", "error", err)

		return true
	}

	return !result.Reached
}
