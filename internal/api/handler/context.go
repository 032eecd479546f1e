package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/api/middleware"
	"github.com/99minutos/identity-service/internal/core/domain"
)

// ctxActor returns the claims attached by the authentication guard. Its
// absence means the route was registered without one.
func ctxActor(c echo.Context) (*domain.Claims, error) {
	actor := middleware.Actor(c)
	if actor == nil || actor.Subject == "" {
		return nil, domain.ErrMissingToken
	}
	return actor, nil
}
