package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/andamios/andamios-api/internal/core/domain"
	"github.com/andamios/andamios-api/internal/core/ports"
	"github.com/andamios/andamios-api/internal/pkg/metrics"
)

// MaxItemNameLength bounds item names, counted in characters.
const MaxItemNameLength = 200

type ItemService struct {
	repo   ports.ItemRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewItemService(repo ports.ItemRepository, logger zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, logger: logger, now: time.Now}
}

func (s *ItemService) CreateItem(ctx context.Context, input ports.CreateItemInput) (*domain.Item, error) {
	name, err := itemName(input.Name)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item, err := s.repo.Create(ctx, &domain.Item{
		Name:        name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, storeFailure(s.logger, "create item", err)
	}

	metrics.ResourceMutationsTotal.WithLabelValues("item", "create").Inc()
	s.logger.Info().Str("item_id", item.ID).Msg("item created")
	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrItemNotFound
		}
		return nil, storeFailure(s.logger, "get item", err)
	}
	return item, nil
}

func (s *ItemService) ListItems(ctx context.Context) ([]*domain.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, "list items", err)
	}
	return items, nil
}

// UpdateItem applies a partial update. Only fields that are set change.
func (s *ItemService) UpdateItem(ctx context.Context, id string, update domain.ItemUpdate) (*domain.Item, error) {
	if update.Empty() {
		return nil, domain.ErrEmptyUpdate
	}
	if update.Name != nil {
		name, err := itemName(*update.Name)
		if err != nil {
			return nil, err
		}
		update.Name = &name
	}

	item, err := s.repo.Update(ctx, id, update)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrItemNotFound
		}
		return nil, storeFailure(s.logger, "update item", err)
	}

	metrics.ResourceMutationsTotal.WithLabelValues("item", "update").Inc()
	s.logger.Info().Str("item_id", id).Msg("item updated")
	return item, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return domain.ErrItemNotFound
		}
		return storeFailure(s.logger, "delete item", err)
	}
	metrics.ResourceMutationsTotal.WithLabelValues("item", "delete").Inc()
	s.logger.Info().Str("item_id", id).Msg("item deleted")
	return nil
}

func itemName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		return "", invalidInput("name", "is required")
	case len([]rune(name)) > MaxItemNameLength:
		return "", invalidInput("name", "must be at most 200 characters")
	}
	return name, nil
}
