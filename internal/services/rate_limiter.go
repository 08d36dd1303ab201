package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
)

// RateLimiter decides whether a person may be issued another auth token of
// the given type within constants.RateLimitWindow.
type RateLimiter interface {
	Allow(ctx context.Context, personID uint64, tokenType models.AuthTokenType) (bool, error)
}

// DBRateLimiter counts issued tokens in the auth_tokens table.
type DBRateLimiter struct {
	tokens repository.AuthTokenRepository
	limit  int
	now    func() time.Time
}

func NewDBRateLimiter(tokens repository.AuthTokenRepository, limit int) *DBRateLimiter {
	return &DBRateLimiter{tokens: tokens, limit: limit, now: time.Now}
}

func (l *DBRateLimiter) Allow(_ context.Context, personID uint64, tokenType models.AuthTokenType) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	count, err := l.tokens.CountSince(personID, tokenType, l.now().Add(-constants.RateLimitWindow))
	if err != nil {
		return false, fmt.Errorf("failed to count auth tokens: %w", err)
	}
	return count < int64(l.limit), nil
}

// RedisRateLimiter keeps a fixed-window counter per person and token type.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
}

func NewRedisRateLimiter(client *redis.Client, limit int) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit}
}

func rateLimitKey(personID uint64, tokenType models.AuthTokenType) string {
	return fmt.Sprintf("auth_tokens:%s:%d", tokenType, personID)
}

func (l *RedisRateLimiter) Allow(ctx context.Context, personID uint64, tokenType models.AuthTokenType) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	key := rateLimitKey(personID, tokenType)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, constants.RateLimitWindow)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to update rate limit counter: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}

// FallbackRateLimiter tries the primary limiter and falls back to the
// secondary when the primary errors, e.g. when redis is unreachable.
type FallbackRateLimiter struct {
	Primary   RateLimiter
	Secondary RateLimiter
}

func (l FallbackRateLimiter) Allow(ctx context.Context, personID uint64, tokenType models.AuthTokenType) (bool, error) {
	allowed, err := l.Primary.Allow(ctx, personID, tokenType)
	if err == nil {
		return allowed, nil
	}
	return l.Secondary.Allow(ctx, personID, tokenType)
}
