package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core/center"
	"github.com/taqyimhq/taqyim/core/user"
)

type centerApi struct {
	svc      center.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerCenterAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc center.Service, userSvc user.Service, validate *validator.Validate) {
	api := centerApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	cg := g.Group("/centers", jwt)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.POST("", api.create, adminMiddleware())
	cg.PUT("/:id", api.update, adminMiddleware())
}

func (api *centerApi) create(ctx echo.Context) error {
	var data center.NewCenter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCenter")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cen, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating center")
	}
	return ctx.JSON(http.StatusCreated, cen)
}

func (api *centerApi) query(ctx echo.Context) error {
	filter := new(center.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []center.Center{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	centers, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying centers")
	}
	if centers == nil {
		centers = []center.Center{}
	}
	return ctx.JSON(http.StatusOK, centers)
}

func (api *centerApi) retrieve(ctx echo.Context) error {
	cen, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cen)
}

func (api *centerApi) update(ctx echo.Context) error {
	var data center.UpdateCenter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCenter")
	}

	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	cen, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating center")
	}
	return ctx.JSON(http.StatusOK, cen)
}
