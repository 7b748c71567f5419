package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/andamios/andamios-api/internal/api/apierr"
	"github.com/andamios/andamios-api/internal/api/handler"
	"github.com/andamios/andamios-api/internal/core/domain"
	"github.com/andamios/andamios-api/internal/core/ports"
)

// Auth resolves the bearer token into the calling account and stores it on
// the context. Requests without a bearer token never reach the authenticator.
func Auth(authn ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return apierr.NotAuthenticated()
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				return apierr.NotAuthenticated()
			}

			user, err := authn.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrAuthenticationFailed) {
					return apierr.InvalidCredentials()
				}
				return err
			}

			handler.SetCurrentUser(c, user)
			return next(c)
		}
	}
}
