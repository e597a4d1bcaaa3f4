package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core/access"
	"github.com/taqyimhq/taqyim/core/user"
)

// roleMiddleware restricts a route to the given roles. Denial is always a
// soft redirect: 403 with the view the client should navigate to instead.
// An empty role set admits any known role; unknown roles are sent to login.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if redirect, denied := access.Authorize(claims.Role, roles...).DenyRedirect(); denied {
				return echo.NewHTTPError(http.StatusForbidden, echo.Map{
					"error":    "permission denied",
					"redirect": redirect,
				})
			}
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleAdmin)
}
