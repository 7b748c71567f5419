// Package memory keeps users and items in process memory. It is the default
// backend for development and tests and loses everything on restart.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/andamios/andamios-api/internal/core/domain"
	"github.com/andamios/andamios-api/internal/core/security"
)

// UserRepository is safe for concurrent use. The email index and the record
// map change under one lock, so a case-folded address is claimed once.
type UserRepository struct {
	mu      sync.RWMutex
	seq     int64
	byID    map[string]*domain.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := security.NormalizeEmail(user.Email)
	if _, taken := r.byEmail[key]; taken {
		return nil, domain.ErrDuplicateEmail
	}
	r.seq++
	stored := *user
	stored.ID = strconv.FormatInt(r.seq, 10)
	r.byID[stored.ID] = &stored
	r.byEmail[key] = stored.ID

	out := stored
	return &out, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.Email != nil {
		key := security.NormalizeEmail(*update.Email)
		if owner, taken := r.byEmail[key]; taken && owner != id {
			return nil, domain.ErrDuplicateEmail
		}
		delete(r.byEmail, security.NormalizeEmail(u.Email))
		r.byEmail[key] = id
		u.Email = *update.Email
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	u.UpdatedAt = time.Now().UTC()

	out := *u
	return &out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, security.NormalizeEmail(u.Email))
	delete(r.byID, id)
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out, nil
}

type ItemRepository struct {
	mu    sync.RWMutex
	seq   int64
	items map[string]*domain.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[string]*domain.Item)}
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	stored := *item
	stored.ID = strconv.FormatInt(r.seq, 10)
	stored.Description = cloneString(item.Description)
	r.items[stored.ID] = &stored
	return cloneItem(&stored), nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return cloneItem(it), nil
}

func (r *ItemRepository) Update(ctx context.Context, id string, update domain.ItemUpdate) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if update.Name != nil {
		it.Name = *update.Name
	}
	if update.Description != nil {
		it.Description = cloneString(update.Description)
	}
	it.UpdatedAt = time.Now().UTC()
	return cloneItem(it), nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ItemRepository) List(ctx context.Context) ([]*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, cloneItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out, nil
}

func cloneItem(it *domain.Item) *domain.Item {
	c := *it
	c.Description = cloneString(it.Description)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// idLess orders sequence ids numerically.
func idLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
