package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andamios/andamios-api/internal/core/domain"
	"github.com/andamios/andamios-api/internal/core/security"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

var errStoreDown = errors.New("connection refused")

type stubUserRepo struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*domain.User
	byEmail map[string]string // folded email -> id
	failAll error             // if set, every call returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	key := security.NormalizeEmail(u.Email)
	if _, taken := r.byEmail[key]; taken {
		return nil, domain.ErrDuplicateEmail
	}
	r.seq++
	clone := *u
	clone.ID = strconv.Itoa(r.seq)
	r.byID[clone.ID] = &clone
	r.byEmail[key] = clone.ID
	out := clone
	return &out, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Email != nil {
		key := security.NormalizeEmail(*upd.Email)
		if owner, taken := r.byEmail[key]; taken && owner != id {
			return nil, domain.ErrDuplicateEmail
		}
		delete(r.byEmail, security.NormalizeEmail(u.Email))
		r.byEmail[key] = id
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, security.NormalizeEmail(u.Email))
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type stubItemRepo struct {
	seq     int
	items   map[string]*domain.Item
	failAll error
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[string]*domain.Item)}
}

func (r *stubItemRepo) FindByID(_ context.Context, id string) (*domain.Item, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	clone := *it
	return &clone, nil
}

func (r *stubItemRepo) Create(_ context.Context, it *domain.Item) (*domain.Item, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	r.seq++
	clone := *it
	clone.ID = strconv.Itoa(r.seq)
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubItemRepo) Update(_ context.Context, id string, upd domain.ItemUpdate) (*domain.Item, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	if upd.Description != nil {
		it.Description = upd.Description
	}
	clone := *it
	return &clone, nil
}

func (r *stubItemRepo) Delete(_ context.Context, id string) error {
	if r.failAll != nil {
		return r.failAll
	}
	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubItemRepo) List(_ context.Context) ([]*domain.Item, error) {
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := make([]*domain.Item, 0, len(r.items))
	for _, it := range r.items {
		clone := *it
		out = append(out, &clone)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Hasher and throttle stubs
// ---------------------------------------------------------------------------

// bcryptHasher runs the real hasher at the minimum cost so tests stay fast.
type bcryptHasher struct {
	h *security.BcryptHasher

	mu       sync.Mutex
	verifies int
}

func newBcryptHasher() *bcryptHasher {
	h, err := security.NewBcryptHasher(4)
	if err != nil {
		panic(err)
	}
	return &bcryptHasher{h: h}
}

func (b *bcryptHasher) Hash(_ context.Context, p string) (string, error) {
	return b.h.Hash(p)
}

func (b *bcryptHasher) Verify(_ context.Context, p, hash string) (bool, error) {
	b.mu.Lock()
	b.verifies++
	b.mu.Unlock()
	return b.h.Verify(p, hash), nil
}

func (b *bcryptHasher) verifyCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.verifies
}

type stubThrottle struct {
	mu       sync.Mutex
	max      int
	attempts map[string]int
	err      error
}

func newStubThrottle(max int) *stubThrottle {
	return &stubThrottle{max: max, attempts: make(map[string]int)}
}

func (t *stubThrottle) Attempt(_ context.Context, email string) (bool, time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return false, 0, t.err
	}
	if strings.ToLower(email) != email {
		panic("throttle key not case-folded: " + email)
	}
	t.attempts[email]++
	if t.attempts[email] > t.max {
		return false, time.Minute, nil
	}
	return true, 0, nil
}

func (t *stubThrottle) Reset(_ context.Context, email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	delete(t.attempts, email)
	return nil
}

func (t *stubThrottle) count(email string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[email]
}

// failingHasher refuses every job.
type failingHasher struct{ err error }

func (h failingHasher) Hash(context.Context, string) (string, error) { return "", h.err }

func (h failingHasher) Verify(context.Context, string, string) (bool, error) { return false, h.err }

// countingBcrypt is the synchronous hasher fed to a real hash pool.
type countingBcrypt struct {
	h *security.BcryptHasher

	mu       sync.Mutex
	verifies int
}

func (c *countingBcrypt) Hash(p string) (string, error) { return c.h.Hash(p) }

func (c *countingBcrypt) Verify(p, hash string) bool {
	c.mu.Lock()
	c.verifies++
	c.mu.Unlock()
	return c.h.Verify(p, hash)
}

func (c *countingBcrypt) verifyCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifies
}
