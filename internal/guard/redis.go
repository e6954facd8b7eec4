package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"loyalty-gateway/pkg/platform/audit"
)

// Redis is the multi-instance guard: the claim is a SET NX key with a TTL,
// so it holds across gateway replicas and disappears on its own if the
// claiming request dies.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) key(identityToken string) string {
	// The raw provider token never goes into Redis keys.
	return "loyalty:register-claim:" + audit.HashSubject(identityToken)
}

// Acquire claims the token via SET NX. The caller decides what a guard
// outage means; this layer only reports it.
func (r *Redis) Acquire(ctx context.Context, identityToken string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(identityToken), "1", r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire registration claim: %w", err)
	}
	return ok, nil
}

// Release drops the claim early; TTL expiry covers the crash case.
func (r *Redis) Release(ctx context.Context, identityToken string) {
	if err := r.client.Del(ctx, r.key(identityToken)).Err(); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "failed to release registration claim", "error", err)
	}
}
