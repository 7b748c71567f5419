package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/andamios/andamios-api/internal/api/apierr"
	"github.com/andamios/andamios-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the JSON envelope {"detail", "error_code", "timestamp", "validation_errors"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := resolveError(err, log, c)
		for k, vs := range apiErr.Header {
			for _, v := range vs {
				c.Response().Header().Add(k, v)
			}
		}
		resp := apiErr.Response(time.Now())

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(apiErr.Status)
			return
		}
		_ = c.JSON(apiErr.Status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) *apierr.Error {
	// Already shaped by a handler or middleware.
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}

	var throttled *domain.ThrottledError
	if errors.As(err, &throttled) {
		e := apierr.New(http.StatusTooManyRequests, apierr.CodeTooManyAttempts, "Too many failed login attempts, try again later")
		secs := int(math.Ceil(throttled.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		e.Header = http.Header{"Retry-After": []string{strconv.Itoa(secs)}}
		return e
	}

	var invalid *domain.InvalidInputError
	if errors.As(err, &invalid) {
		return apierr.Validation(apierr.FieldError{Field: invalid.Field, Message: invalid.Message, Code: "VALUE_ERROR"})
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return apierr.InvalidCredentials()
	case errors.Is(err, domain.ErrDuplicateEmail):
		return apierr.New(http.StatusBadRequest, apierr.CodeDuplicateEmail, "Email already registered")
	case errors.Is(err, domain.ErrUserNotFound):
		return apierr.New(http.StatusNotFound, apierr.CodeUserNotFound, "User not found")
	case errors.Is(err, domain.ErrItemNotFound):
		return apierr.New(http.StatusNotFound, apierr.CodeItemNotFound, "Item not found")
	case errors.Is(err, domain.ErrEmptyUpdate):
		return apierr.New(http.StatusBadRequest, apierr.CodeEmptyUpdate, "No fields to update")
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("store unavailable")
		return apierr.New(http.StatusServiceUnavailable, apierr.CodeServiceUnavailable, "Service temporarily unavailable")
	}

	// Echo's own errors (unknown route, method not allowed, body too large...)
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code != http.StatusInternalServerError {
		return apierr.New(he.Code, apierr.HTTPCode(he.Code), fmt.Sprintf("%v", he.Message))
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, "Internal server error")
}
