package ports

import (
	"context"

	"github.com/andamios/andamios-api/internal/core/domain"
)

// UserService defines use-case operations for managing accounts.
type UserService interface {
	CreateUser(ctx context.Context, name, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}
