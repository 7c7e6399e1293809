package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

type journeyApi struct {
	svc      *journey.Service
	childSvc *child.Service
	validate *validator.Validate
}

func registerJourneyAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := journeyApi{
		svc:      deps.JourneySvc,
		childSvc: deps.ChildSvc,
		validate: deps.Validate,
	}

	// "/children/:id" is already a group of the child API
	childMws := withMiddleware(authed, childMiddleware(deps.ChildSvc, deps.InvitationSvc))
	g.GET("/children/:id/journey", api.modules, childMws...)
	// approved professionals run their own sessions
	g.POST("/children/:id/journey", api.start, childMws...)
	g.GET("/children/:id/sessions", api.childSessions, childMws...)
	g.GET("/children/:id/reports", api.childReports, childMws...)

	sg := g.Group("/sessions/:id", withMiddleware(authed, sessionMiddleware(deps.JourneySvc, deps.ChildSvc))...)
	sg.GET("", api.state)
	sg.POST("/answers", api.answer)
	sg.POST("/pause", api.pause)
	sg.POST("/resume", api.resume)
	sg.POST("/complete", api.complete)
	sg.GET("/report", api.report)
	sg.GET("/responses", api.responses)
}

// JourneyModules lists the modules of the bank from the child's point of view.
type JourneyModules struct {
	AgeMonths     int              `json:"age_months"`
	Modules       []journey.Module `json:"modules"`
	ActiveModules []journey.Module `json:"active_modules"`
}

func (api *journeyApi) modules(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	age := c.AgeMonths(api.childSvc.Now())
	modules := api.svc.Bank().Modules(ctx.Request().Context(), age)
	res := JourneyModules{
		AgeMonths:     age,
		Modules:       modules,
		ActiveModules: journey.ActiveModules(modules),
	}
	if res.Modules == nil {
		res.Modules = []journey.Module{}
	}
	if res.ActiveModules == nil {
		res.ActiveModules = []journey.Module{}
	}
	return respondOK(ctx, res)
}

func (api *journeyApi) start(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	state, err := api.svc.StartJourney(ctx.Request().Context(), usr.ID, c)
	if err != nil {
		return errors.Wrap(err, "starting journey")
	}
	return respondOK(ctx, state)
}

func (api *journeyApi) childSessions(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	filter := journey.SessionFilter{ChildID: c.ID}
	if status := ctx.QueryParam("status"); status != "" {
		filter.Statuses = []journey.SessionStatus{journey.SessionStatus(status)}
	}

	sessions, err := api.svc.Sessions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []journey.Session{}
	}
	return respondOK(ctx, sessions)
}

func (api *journeyApi) childReports(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	reports, err := api.svc.ChildReports(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	if reports == nil {
		reports = []journey.Report{}
	}
	return respondOK(ctx, reports)
}

// sessionContext returns the objects set by sessionMiddleware.
func sessionContext(ctx echo.Context) (journey.Session, child.Child, error) {
	s, err := getContextSession(ctx)
	if err != nil {
		return s, child.Child{}, err
	}
	c, err := getContextChild(ctx)
	return s, c, err
}

func (api *journeyApi) state(ctx echo.Context) error {
	s, c, err := sessionContext(ctx)
	if err != nil {
		return err
	}
	state, err := api.svc.State(ctx.Request().Context(), s, c)
	if err != nil {
		return errors.Wrap(err, "loading session state")
	}
	return respondOK(ctx, state)
}

func (api *journeyApi) answer(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, c, err := sessionContext(ctx)
	if err != nil {
		return err
	}

	var data journey.NewAnswer
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnswer")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.RecordAnswer(ctx.Request().Context(), usr.ID, s, c, data)
	if err != nil {
		return errors.Wrap(err, "recording answer")
	}
	return respond(ctx, http.StatusCreated, res)
}

func (api *journeyApi) pause(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if s, err = api.svc.Pause(ctx.Request().Context(), usr.ID, s); err != nil {
		return errors.Wrap(err, "pausing session")
	}
	return respondOK(ctx, s)
}

func (api *journeyApi) resume(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if s, err = api.svc.Resume(ctx.Request().Context(), usr.ID, s); err != nil {
		return errors.Wrap(err, "resuming session")
	}
	return respondOK(ctx, s)
}

// CompletedSession is returned when a session is completed manually.
type CompletedSession struct {
	Session journey.Session `json:"session"`
	Report  journey.Report  `json:"report"`
}

func (api *journeyApi) complete(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, c, err := sessionContext(ctx)
	if err != nil {
		return err
	}
	s, report, err := api.svc.Complete(ctx.Request().Context(), usr.ID, s, c)
	if err != nil {
		return errors.Wrap(err, "completing session")
	}
	return respondOK(ctx, CompletedSession{Session: s, Report: report})
}

func (api *journeyApi) report(ctx echo.Context) error {
	s, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.Report(ctx.Request().Context(), s)
	if err != nil {
		return errors.Wrap(err, "loading report")
	}
	return respondOK(ctx, report)
}

func (api *journeyApi) responses(ctx echo.Context) error {
	s, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	responses, err := api.svc.Responses(ctx.Request().Context(), s.ID)
	if err != nil {
		return errors.Wrap(err, "loading responses")
	}
	if responses == nil {
		responses = []journey.Response{}
	}
	return respondOK(ctx, responses)
}
