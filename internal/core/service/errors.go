package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andamios/andamios-api/internal/core/domain"
)

// storeFailure logs the real storage error and returns the opaque
// ErrStoreUnavailable kind, so that driver detail never reaches callers.
func storeFailure(log zerolog.Logger, op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("store failure")
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}

func invalidInput(field, msg string) error {
	return &domain.InvalidInputError{Field: field, Message: msg}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrItemNotFound)
}
