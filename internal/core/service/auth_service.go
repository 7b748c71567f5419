package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/andamios/andamios-api/internal/core/domain"
	"github.com/andamios/andamios-api/internal/core/ports"
	"github.com/andamios/andamios-api/internal/core/security"
	"github.com/andamios/andamios-api/internal/pkg/metrics"
)

// TokenTypeBearer is the token_type reported to clients.
const TokenTypeBearer = "bearer"

// dummyPassword seeds the hash used to keep unknown-email logins as slow as
// wrong-password logins.
const dummyPassword = "andamios-timing-equaliser"

// AuthService implements registration, login and per-request identity
// resolution.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenManager
	throttle ports.LoginThrottle
	log      zerolog.Logger
	now      func() time.Time

	// dummyHash is verified against when the email is unknown.
	dummyHash string
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithLoginThrottle enables failed-login limiting.
func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService hashes the timing-equaliser password up front, so it fails
// when the hasher cannot run. The hasher must be ready to accept work.
func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenManager, log zerolog.Logger, opts ...AuthOption) (*AuthService, error) {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	hash, err := hasher.Hash(context.Background(), dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("auth service: prepare timing hash: %w", err)
	}
	s.dummyHash = hash
	return s, nil
}

// Register creates an account. The email must be unused under case folding;
// the store's own uniqueness constraint settles concurrent registrations.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name == "":
		return nil, invalidInput("name", "is required")
	case email == "":
		return nil, invalidInput("email", "is required")
	case password == "":
		return nil, invalidInput("password", "is required")
	case len(password) > security.MaxPasswordBytes:
		return nil, invalidInput("password", "must be at most 72 bytes")
	}

	folded := security.NormalizeEmail(email)
	_, err := s.users.FindByEmail(ctx, folded)
	switch {
	case err == nil:
		metrics.AuthAttemptsTotal.WithLabelValues("register", "duplicate").Inc()
		return nil, domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrUserNotFound):
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, storeFailure(s.log, "register: find by email", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "duplicate").Inc()
			return nil, domain.ErrDuplicateEmail
		}
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, storeFailure(s.log, "register: create", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	metrics.ResourceMutationsTotal.WithLabelValues("user", "create").Inc()
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Login checks credentials and issues an access token. Unknown email and wrong
// password produce the same domain.ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AccessToken, error) {
	folded := security.NormalizeEmail(email)

	if s.throttle != nil {
		allowed, retryAfter, err := s.throttle.Attempt(ctx, folded)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		} else if !allowed {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "throttled").Inc()
			return nil, &domain.ThrottledError{RetryAfter: retryAfter}
		}
	}

	user, err := s.users.FindByEmail(ctx, folded)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
			return nil, storeFailure(s.log, "login: find by email", err)
		}
		// Unknown emails cost one bcrypt verify, like a wrong password.
		_, _ = s.hasher.Verify(ctx, password, s.dummyHash)
		return nil, s.loginFailed("unknown_email")
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, s.loginFailed("wrong_password")
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, folded); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, s.now())
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.AccessToken{
		Token:     token,
		Type:      TokenTypeBearer,
		ExpiresAt: expiresAt,
		TTL:       s.tokens.TTL(),
	}, nil
}

// Authenticate verifies a bearer token and loads the account it names. A
// token for an account that no longer exists fails exactly like a forged one.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	subject, err := s.tokens.Verify(token, s.now())
	if err != nil {
		return nil, s.authenticateFailed(security.FailureReason(err))
	}

	user, err := s.users.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, s.authenticateFailed("unknown_subject")
		}
		metrics.AuthAttemptsTotal.WithLabelValues("authenticate", "error").Inc()
		return nil, storeFailure(s.log, "authenticate: find by id", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("authenticate", "success").Inc()
	return user, nil
}

// Logout acknowledges the call. Tokens are stateless and stay valid until
// they expire.
func (s *AuthService) Logout(_ context.Context, user *domain.User) error {
	if user != nil {
		s.log.Info().Str("user_id", user.ID).Msg("user logged out")
	}
	return nil
}

func (s *AuthService) loginFailed(reason string) error {
	metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	s.log.Debug().Str("reason", reason).Msg("login rejected")
	return domain.ErrAuthenticationFailed
}

func (s *AuthService) authenticateFailed(reason string) error {
	if reason == "" {
		reason = security.ReasonInvalid
	}
	metrics.AuthAttemptsTotal.WithLabelValues("authenticate", "failure").Inc()
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	s.log.Debug().Str("reason", reason).Msg("token rejected")
	return domain.ErrAuthenticationFailed
}
