package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core/form"
	"github.com/taqyimhq/taqyim/core/user"
)

type formApi struct {
	svc      form.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerFormAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc form.Service, userSvc user.Service, validate *validator.Validate) {
	api := formApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	fg := g.Group("/forms", jwt)
	fg.GET("", api.query)
	fg.GET("/:id", api.retrieve)
	fg.POST("", api.create, adminMiddleware())
	fg.PUT("/:id", api.update, adminMiddleware())
}

func (api *formApi) create(ctx echo.Context) error {
	var data form.NewForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	frm, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating form")
	}
	return ctx.JSON(http.StatusCreated, frm)
}

func (api *formApi) query(ctx echo.Context) error {
	filter := new(form.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []form.Form{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	forms, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying forms")
	}
	if forms == nil {
		forms = []form.Form{}
	}
	return ctx.JSON(http.StatusOK, forms)
}

func (api *formApi) retrieve(ctx echo.Context) error {
	frm, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, frm)
}

// update persists form edits. Replacing criteria bumps the form version;
// evaluations started earlier keep the version they froze.
func (api *formApi) update(ctx echo.Context) error {
	var data form.UpdateForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateForm")
	}

	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	frm, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating form")
	}
	return ctx.JSON(http.StatusOK, frm)
}
