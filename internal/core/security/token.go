package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andamios/andamios-api/internal/core/domain"
)

// MinSigningKeyLength is the shortest accepted HMAC signing key, in bytes.
const MinSigningKeyLength = 16

// DefaultTokenTTL is used when TokenConfig.TTL is zero.
const DefaultTokenTTL = 30 * time.Minute

// Failure reasons attached to verification errors for internal logging.
const (
	ReasonMalformed      = "malformed"
	ReasonBadSignature   = "bad_signature"
	ReasonBadAlgorithm   = "bad_algorithm"
	ReasonExpired        = "expired"
	ReasonMissingSubject = "missing_subject"
	ReasonInvalid        = "invalid"
)

// TokenError is returned by JWTManager.Verify. Its message is identical for
// every reason and it matches domain.ErrAuthenticationFailed with errors.Is.
type TokenError struct {
	Reason string
}

func (e *TokenError) Error() string { return domain.ErrAuthenticationFailed.Error() }

func (e *TokenError) Is(target error) bool { return target == domain.ErrAuthenticationFailed }

// FailureReason extracts the internal reason from a verification error.
func FailureReason(err error) string {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Reason
	}
	return ""
}

// TokenConfig configures a JWTManager.
type TokenConfig struct {
	Secret    []byte
	Algorithm string
	TTL       time.Duration
}

// JWTManager issues and verifies HMAC-signed access tokens carrying exactly
// sub, iat and exp.
type JWTManager struct {
	key    []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewJWTManager validates cfg and returns a manager. The key is copied.
func NewJWTManager(cfg TokenConfig) (*JWTManager, error) {
	if len(cfg.Secret) < MinSigningKeyLength {
		return nil, fmt.Errorf("signing key must be at least %d bytes", MinSigningKeyLength)
	}
	method, err := HMACMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	key := make([]byte, len(cfg.Secret))
	copy(key, cfg.Secret)
	return &JWTManager{key: key, method: method, ttl: ttl}, nil
}

// HMACMethod resolves an algorithm name to an HMAC signing method.
func HMACMethod(name string) (jwt.SigningMethod, error) {
	if name == "" {
		return jwt.SigningMethodHS256, nil
	}
	method, ok := jwt.GetSigningMethod(name).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", name)
	}
	return method, nil
}

func (m *JWTManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for subject valid from now until now+TTL. Timestamps
// have second granularity, so two tokens issued in the same second for the
// same subject are identical.
func (m *JWTManager) Issue(subject string, now time.Time) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("issue token: empty subject")
	}
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(m.ttl))

	token := jwt.NewWithClaims(m.method, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	})
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

// Verify checks the signature and algorithm, requires a subject and rejects
// the token unless now is strictly before its expiry.
func (m *JWTManager) Verify(token string, now time.Time) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	})
	if err != nil {
		return "", &TokenError{Reason: reasonFor(err)}
	}
	if !parsed.Valid {
		return "", &TokenError{Reason: ReasonInvalid}
	}
	if claims.Subject == "" {
		return "", &TokenError{Reason: ReasonMissingSubject}
	}
	return claims.Subject, nil
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ReasonBadSignature
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonBadAlgorithm
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonInvalid
	}
}
