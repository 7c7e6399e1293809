package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

type questionApi struct {
	bank     *journey.Bank
	validate *validator.Validate
}

func registerQuestionAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := questionApi{
		bank:     deps.JourneySvc.Bank(),
		validate: deps.Validate,
	}

	g.GET("/dimensions", api.dimensions, authed...)

	qg := g.Group("/questions", withMiddleware(authed, adminMiddleware())...)
	qg.GET("", api.query)
	qg.POST("", api.create)
	qg.GET("/:id", api.retrieve)
	qg.PUT("/:id", api.update)
	qg.DELETE("/:id", api.destroy)
}

func (api *questionApi) dimensions(ctx echo.Context) error {
	return respondOK(ctx, journey.Dimensions)
}

func (api *questionApi) query(ctx echo.Context) error {
	filter := journey.QuestionFilter{
		Dimension: core.CleanString(ctx.QueryParam("dimension"), true /* lower */),
		Active:    queryBool(ctx, "is_active"),
		AgeMonths: queryInt(ctx, "age_months"),
	}
	questions, err := api.bank.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []journey.Question{}
	}
	return respondOK(ctx, questions)
}

func (api *questionApi) create(ctx echo.Context) error {
	var data journey.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.bank.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return respond(ctx, http.StatusCreated, q)
}

func (api *questionApi) retrieve(ctx echo.Context) error {
	q, err := api.bank.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding question by ID")
	}
	return respondOK(ctx, q)
}

func (api *questionApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	q, err := api.bank.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding question by ID")
	}

	var data journey.UpdateQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	q, err = api.bank.Update(reqCtx, q, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return respondOK(ctx, q)
}

func (api *questionApi) destroy(ctx echo.Context) error {
	if err := api.bank.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return respondMessage(ctx, "question deleted")
}
