package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core/dashboard"
	"github.com/taqyimhq/taqyim/core/user"
)

type dashboardApi struct {
	svc     dashboard.Service
	userSvc user.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc dashboard.Service, userSvc user.Service) {
	api := dashboardApi{
		svc:     svc,
		userSvc: userSvc,
	}

	dg := g.Group("/dashboard", jwt)
	dg.GET("", api.stats, roleMiddleware())
	dg.GET("/rankings", api.rankings, roleMiddleware(user.RoleAdmin, user.RoleManager, user.RoleReviewer))
}

// stats returns the dashboard summary for the authenticated role. Each role
// gets its own shape; the role middleware has already bounced unknown roles.
func (api *dashboardApi) stats(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var stats interface{}
	switch ctxUsr.Role {
	case user.RoleAdmin:
		stats, err = api.svc.AdminStats(ctx.Request().Context())
	case user.RoleManager:
		stats, err = api.svc.ManagerStats(ctx.Request().Context(), ctxUsr)
	case user.RoleEmployee:
		stats, err = api.svc.EmployeeStats(ctx.Request().Context(), ctxUsr)
	case user.RoleReviewer:
		stats, err = api.svc.ReviewerStats(ctx.Request().Context())
	default:
		return errHttpForbidden
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) rankings(ctx echo.Context) error {
	rankings, err := api.svc.Rankings(ctx.Request().Context())
	if err != nil {
		return err
	}
	if rankings == nil {
		rankings = []dashboard.CenterRanking{}
	}
	return ctx.JSON(http.StatusOK, rankings)
}
