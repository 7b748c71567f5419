package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/andamios/andamios-api/internal/core/domain"
	"github.com/andamios/andamios-api/internal/core/ports"
	"github.com/andamios/andamios-api/internal/core/security"
	"github.com/andamios/andamios-api/internal/pkg/metrics"
)

// Registrar creates accounts with hashed passwords. AuthService satisfies it.
type Registrar interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
}

type UserService struct {
	repo      ports.UserRepository
	registrar Registrar
	logger    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, registrar Registrar, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, registrar: registrar, logger: logger}
}

// CreateUser follows the same hashing and uniqueness rules as self-registration.
func (s *UserService) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.registrar.Register(ctx, name, email, password)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeFailure(s.logger, "get user", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, "list users", err)
	}
	return users, nil
}

// UpdateUser changes name and/or email. A new email must not collide, under
// case folding, with any other account.
func (s *UserService) UpdateUser(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	if update.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	var clean domain.UserUpdate
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, invalidInput("name", "must not be empty")
		}
		clean.Name = &name
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return nil, invalidInput("email", "must not be empty")
		}
		existing, err := s.repo.FindByEmail(ctx, security.NormalizeEmail(email))
		switch {
		case err == nil && existing.ID != id:
			return nil, domain.ErrDuplicateEmail
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return nil, storeFailure(s.logger, "update user: find by email", err)
		}
		clean.Email = &email
	}

	updated, err := s.repo.Update(ctx, id, clean)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return nil, domain.ErrUserNotFound
		case errors.Is(err, domain.ErrDuplicateEmail):
			return nil, domain.ErrDuplicateEmail
		}
		return nil, storeFailure(s.logger, "update user", err)
	}

	metrics.ResourceMutationsTotal.WithLabelValues("user", "update").Inc()
	s.logger.Info().Str("user_id", id).Msg("user updated")
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return domain.ErrUserNotFound
		}
		return storeFailure(s.logger, "delete user", err)
	}
	metrics.ResourceMutationsTotal.WithLabelValues("user", "delete").Inc()
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
