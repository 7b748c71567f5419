package ports

import (
	"context"

	"github.com/andamios/andamios-api/internal/core/domain"
)

// ItemRepository defines persistence operations for items.
// Missing items are reported as domain.ErrItemNotFound.
type ItemRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	Update(ctx context.Context, id string, update domain.ItemUpdate) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Item, error)
}
