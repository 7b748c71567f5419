package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "login_failures:"

// LoginThrottle limits login attempts per case-folded email in a fixed
// window. Key format: login_failures:<email>. Every attempt increments the
// counter and a successful login deletes it, so the count is the number of
// failed or in-flight attempts. The first attempt starts the window; the key
// expires with it.
type LoginThrottle struct {
	client      redis.UniversalClient
	maxFailures int64
	window      time.Duration
}

// NewLoginThrottle wraps client. Once maxFailures attempts have been counted,
// further attempts are refused until the window ends.
func NewLoginThrottle(client redis.UniversalClient, maxFailures int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Attempt counts one login attempt and reports whether it may proceed. INCR,
// EXPIRE NX and PTTL run in one MULTI, so the decision is taken on the count
// this attempt produced. When refused, retryAfter is the time left in the
// window.
func (t *LoginThrottle) Attempt(ctx context.Context, email string) (bool, time.Duration, error) {
	key := t.key(email)

	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	if _, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, t.window)
		ttl = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return false, 0, fmt.Errorf("throttle attempt: %w", err)
	}

	if count.Val() <= t.maxFailures {
		return true, 0, nil
	}
	retryAfter := ttl.Val()
	if retryAfter <= 0 {
		retryAfter = t.window
	}
	return false, retryAfter, nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	if err := t.client.Del(ctx, t.key(email)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

func (t *LoginThrottle) key(email string) string {
	return keyPrefix + email
}
