package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andamios/andamios-api/internal/core/domain"
)

const (
	testKey1 = "0123456789abcdef-key-one"
	testKey2 = "0123456789abcdef-key-two"
)

func newManager(t *testing.T, key string, ttl time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(TokenConfig{Secret: []byte(key), Algorithm: "HS256", TTL: ttl})
	require.NoError(t, err)
	return m
}

func TestJWTManager_IssueVerify(t *testing.T) {
	m := newManager(t, testKey1, 30*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, exp, err := m.Issue("42", now)
	require.NoError(t, err)
	assert.True(t, exp.Equal(now.Add(30*time.Minute)), "expiry %s", exp)

	sub, err := m.Verify(token, now)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestJWTManager_ExpiryBoundary(t *testing.T) {
	const minutes = 30
	m := newManager(t, testKey1, minutes*time.Minute)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, _, err := m.Issue("7", issued)
	require.NoError(t, err)

	_, err = m.Verify(token, issued.Add(minutes*60*time.Second-time.Second))
	assert.NoError(t, err)

	_, err = m.Verify(token, issued.Add(minutes*60*time.Second))
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)

	_, err = m.Verify(token, issued.Add(minutes*60*time.Second+time.Second))
	require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.Equal(t, ReasonExpired, FailureReason(err))
}

func TestJWTManager_WrongKey(t *testing.T) {
	now := time.Now()
	token, _, err := newManager(t, testKey1, time.Hour).Issue("7", now)
	require.NoError(t, err)

	_, err = newManager(t, testKey2, time.Hour).Verify(token, now)
	require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.Equal(t, ReasonBadSignature, FailureReason(err))
}

func TestJWTManager_PayloadClaims(t *testing.T) {
	m := newManager(t, testKey1, 30*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, _, err := m.Issue("abc", now)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	assert.Len(t, claims, 3)
	assert.Equal(t, "abc", claims["sub"])
	assert.EqualValues(t, now.Unix(), claims["iat"])
	assert.EqualValues(t, now.Add(30*time.Minute).Unix(), claims["exp"])
}

func TestJWTManager_SameSecondIsDeterministic(t *testing.T) {
	m := newManager(t, testKey1, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, _, err := m.Issue("1", now)
	require.NoError(t, err)
	b, _, err := m.Issue("1", now.Add(400*time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestJWTManager_RejectionsAreIndistinguishable(t *testing.T) {
	m := newManager(t, testKey1, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	valid, _, err := m.Issue("1", now)
	require.NoError(t, err)
	forged, _, err := newManager(t, testKey2, time.Minute).Issue("1", now)
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}).SignedString([]byte(testKey1))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "1",
	}).SignedString([]byte(testKey1))
	require.NoError(t, err)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}).SignedString([]byte(testKey1))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct {
		token string
		at    time.Time
	}{
		"garbage":    {"garbage", now},
		"empty":      {"", now},
		"truncated":  {valid[:len(valid)-4], now},
		"forged":     {forged, now},
		"expired":    {valid, now.Add(2 * time.Minute)},
		"no subject": {noSub, now},
		"no expiry":  {noExp, now},
		"other alg":  {otherAlg, now},
		"alg none":   {unsigned, now},
		"three dots": {strings.Repeat(".", 3), now},
	}

	var msg string
	for name, tc := range cases {
		_, err := m.Verify(tc.token, tc.at)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, domain.ErrAuthenticationFailed, name)
		assert.NotEmpty(t, FailureReason(err), name)
		if msg == "" {
			msg = err.Error()
		}
		assert.Equal(t, msg, err.Error(), name)
	}
}

func TestNewJWTManager_Validation(t *testing.T) {
	_, err := NewJWTManager(TokenConfig{Secret: []byte("short"), Algorithm: "HS256"})
	assert.Error(t, err)

	_, err = NewJWTManager(TokenConfig{Secret: []byte(testKey1), Algorithm: "RS256"})
	assert.Error(t, err)

	_, err = NewJWTManager(TokenConfig{Secret: []byte(testKey1), Algorithm: "none"})
	assert.Error(t, err)

	_, err = NewJWTManager(TokenConfig{Secret: []byte(testKey1), TTL: -time.Second})
	assert.Error(t, err)

	m, err := NewJWTManager(TokenConfig{Secret: []byte(testKey1)})
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, m.TTL())
}

func TestFailureReason_ForeignError(t *testing.T) {
	assert.Equal(t, "", FailureReason(errors.New("boom")))
}
