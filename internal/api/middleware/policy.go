package middleware

import (
	"context"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// OwnerResolver maps a path parameter to the id of the user owning the
// resource. Unknown or malformed ids must yield a not-found error.
type OwnerResolver func(ctx context.Context, id string) (string, error)

// Ownership restricts a route to the resource owner and admins.
type Ownership struct {
	Param   string
	Resolve OwnerResolver
}

// Policy declares what a route requires of an authenticated actor. An empty
// policy admits any authenticated actor.
type Policy struct {
	Roles []domain.Role
	Owner *Ownership
}

// Guard enforces p. It must run after an authentication guard.
//
// The owner is resolved before any ownership decision, so a missing target
// is reported as not found to every caller.
func Guard(p Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := Actor(c)
			if actor == nil {
				return domain.ErrMissingToken
			}

			if len(p.Roles) > 0 && !slices.Contains(p.Roles, actor.Role) {
				return domain.ErrForbidden
			}

			if p.Owner != nil {
				ownerID, err := p.Owner.Resolve(c.Request().Context(), c.Param(p.Owner.Param))
				if err != nil {
					return err
				}
				if ownerID != actor.Subject && actor.Role != domain.RoleAdmin {
					return domain.ErrForbidden
				}
			}

			return next(c)
		}
	}
}
