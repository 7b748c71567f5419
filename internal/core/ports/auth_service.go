package ports

import (
	"context"
	"time"

	"github.com/andamios/andamios-api/internal/core/domain"
)

// AccessToken is the result of a successful login.
type AccessToken struct {
	Token     string
	Type      string
	ExpiresAt time.Time
	TTL       time.Duration
}

// Authenticator resolves a bearer token into the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// AuthService is the inbound contract used by the routing layer.
type AuthService interface {
	Authenticator
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*AccessToken, error)
	Logout(ctx context.Context, user *domain.User) error
}
