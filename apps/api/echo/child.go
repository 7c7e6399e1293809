package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

type childApi struct {
	svc        *child.Service
	journeySvc *journey.Service
	invSvc     *invitation.Service
	validate   *validator.Validate
}

func registerChildAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := childApi{
		svc:        deps.ChildSvc,
		journeySvc: deps.JourneySvc,
		invSvc:     deps.InvitationSvc,
		validate:   deps.Validate,
	}

	cg := g.Group("/children", authed...)
	cg.GET("", api.query)
	cg.POST("", api.create)

	dg := cg.Group("/:id", childMiddleware(api.svc, api.invSvc))
	dg.GET("", api.retrieve)
	dg.GET("/overview", api.overview)
	dg.PUT("", api.update, childManagerMiddleware)
	dg.DELETE("", api.destroy, childManagerMiddleware)
}

func (api *childApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(usr.IsCaregiver() || usr.IsAdmin()) {
		return errHttpForbidden
	}

	var data child.NewChild
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChild")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating child")
	}
	return respond(ctx, http.StatusCreated, c.WithAge(api.svc.Now()))
}

func (api *childApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := child.QueryFilter{Search: ctx.QueryParam("search")}
	filter.Clean()
	reqCtx := ctx.Request().Context()
	if usr.IsAdmin() {
		filter.All = true
	} else {
		filter.UserIDs = []string{usr.ID}
		if usr.IsProfessional() {
			if filter.IDs, err = api.invSvc.SharedChildIDs(reqCtx, usr.ID); err != nil {
				return errors.Wrap(err, "getting shared children")
			}
		}
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	children, err := api.svc.Query(reqCtx, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	now := api.svc.Now()
	res := make([]child.WithAge, 0, len(children))
	for _, c := range children {
		res = append(res, c.WithAge(now))
	}
	return respondOK(ctx, res)
}

func (api *childApi) retrieve(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	return respondOK(ctx, c.WithAge(api.svc.Now()))
}

func (api *childApi) update(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	var data child.UpdateChild
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChild")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating child")
	}
	return respondOK(ctx, c.WithAge(api.svc.Now()))
}

func (api *childApi) destroy(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting child")
	}
	return respondMessage(ctx, "child deleted")
}

// ChildOverview is everything a dashboard needs to show about one child.
type ChildOverview struct {
	Child        child.WithAge           `json:"child"`
	Modules      []journey.Module        `json:"modules"`
	Sessions     []journey.Session       `json:"sessions"`
	LatestReport *journey.Report         `json:"latest_report"`
	Invitations  []invitation.Invitation `json:"invitations,omitempty"`
}

func (api *childApi) overview(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	access, _ := ctx.Get(contextAccessKey).(childAccess)

	res := ChildOverview{Child: c.WithAge(api.svc.Now())}
	g, gCtx := errgroup.WithContext(ctx.Request().Context())
	g.Go(func() error {
		res.Modules = api.journeySvc.Bank().Modules(gCtx, res.Child.AgeMonths)
		return nil
	})
	g.Go(func() error {
		sessions, err := api.journeySvc.Sessions(gCtx, journey.SessionFilter{ChildID: c.ID})
		if err != nil {
			return errors.Wrap(err, "querying sessions")
		}
		res.Sessions = sessions
		return nil
	})
	g.Go(func() error {
		reports, err := api.journeySvc.ChildReports(gCtx, c.ID)
		if err != nil {
			return errors.Wrap(err, "querying reports")
		}
		if len(reports) > 0 {
			res.LatestReport = &reports[0]
		}
		return nil
	})
	if access >= accessOwner {
		g.Go(func() error {
			invs, err := api.invSvc.ListForChild(gCtx, c.ID)
			if err != nil {
				return errors.Wrap(err, "querying invitations")
			}
			res.Invitations = invs
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	if res.Modules == nil {
		res.Modules = []journey.Module{}
	}
	if res.Sessions == nil {
		res.Sessions = []journey.Session{}
	}
	return respondOK(ctx, res)
}
