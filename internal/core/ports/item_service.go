package ports

import (
	"context"

	"github.com/andamios/andamios-api/internal/core/domain"
)

// CreateItemInput carries the data needed to create an item.
type CreateItemInput struct {
	Name        string
	Description *string
}

// ItemService defines use-case operations for items.
type ItemService interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	ListItems(ctx context.Context) ([]*domain.Item, error)
	UpdateItem(ctx context.Context, id string, update domain.ItemUpdate) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
}
