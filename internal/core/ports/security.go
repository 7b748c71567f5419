package ports

import (
	"context"
	"time"
)

// PasswordHasher hashes and checks plaintext passwords. Implementations may
// run the work on a worker pool, so both calls honour ctx.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. A malformed hash is a
	// mismatch, not an error; err is only set when ctx ends first.
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// TokenManager issues and verifies bearer tokens.
type TokenManager interface {
	Issue(subject string, now time.Time) (string, time.Time, error)
	// Verify returns the subject of a valid token. Every rejection is
	// reported as domain.ErrAuthenticationFailed.
	Verify(token string, now time.Time) (string, error)
	TTL() time.Duration
}

// LoginThrottle limits login attempts per case-folded email. Attempt counts
// the attempt and decides on the new count in one step, so concurrent
// attempts cannot get past the limit. A successful login calls Reset.
type LoginThrottle interface {
	Attempt(ctx context.Context, email string) (allowed bool, retryAfter time.Duration, err error)
	Reset(ctx context.Context, email string) error
}
