package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/andamios/andamios-api/internal/api/apierr"
	"github.com/andamios/andamios-api/internal/core/domain"
)

const currentUserKey = "current_user"

// SetCurrentUser stores the authenticated account on the request context.
func SetCurrentUser(c echo.Context, u *domain.User) {
	c.Set(currentUserKey, u)
}

// currentUser returns the account injected by the auth middleware. Its
// absence means the route was mounted without the middleware.
func currentUser(c echo.Context) (*domain.User, error) {
	u, _ := c.Get(currentUserKey).(*domain.User)
	if u == nil {
		return nil, apierr.NotAuthenticated()
	}
	return u, nil
}
