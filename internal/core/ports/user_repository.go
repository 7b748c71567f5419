package ports

import (
	"context"

	"github.com/andamios/andamios-api/internal/core/domain"
)

// UserRepository is the credential store consumed by the auth core.
//
// Implementations must enforce email uniqueness on the case-folded address and
// report a violation as domain.ErrDuplicateEmail, including when two concurrent
// Create calls race on the same address. Lookups that match nothing return
// domain.ErrUserNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail expects an already case-folded address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.User, error)
}
