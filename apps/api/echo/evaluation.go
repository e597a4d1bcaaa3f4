package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/user"
)

type evaluationApi struct {
	svc      evaluation.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerEvaluationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc evaluation.Service, userSvc user.Service, validate *validator.Validate) {
	api := evaluationApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	eg := g.Group("/evaluations", jwt)
	eg.POST("", api.start)
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id/responses", api.saveResponses)
	eg.POST("/:id/submit", api.submit)
}

func (api *evaluationApi) start(ctx echo.Context) error {
	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ev, err := api.svc.Start(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ev)
}

// query lists evaluations. Employees and managers only ever see their own;
// admins and reviewers may browse across evaluators.
func (api *evaluationApi) query(ctx echo.Context) error {
	filter := new(evaluation.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []evaluation.Evaluation{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || ctxUsr.IsReviewer()) {
		filter.EvaluatorID = ctxUsr.ID
	}

	evals, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	ev, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// hide other evaluators' work from non-admins
	if ev.EvaluatorID != ctxUsr.ID && !(ctxUsr.IsAdmin() || ctxUsr.IsReviewer()) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *evaluationApi) saveResponses(ctx echo.Context) error {
	var data evaluation.SaveResponsesInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveResponsesInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ev, err := api.svc.SaveResponses(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *evaluationApi) submit(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ev, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ev)
}
