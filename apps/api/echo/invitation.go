package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
)

type invitationApi struct {
	svc      *invitation.Service
	validate *validator.Validate
}

func registerInvitationAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := invitationApi{
		svc:      deps.InvitationSvc,
		validate: deps.Validate,
	}

	// caregiver side
	managerMws := withMiddleware(authed, childMiddleware(deps.ChildSvc, deps.InvitationSvc), childManagerMiddleware)
	g.GET("/children/:id/invitations", api.childInvitations, managerMws...)
	g.POST("/children/:id/invitations", api.invite, managerMws...)
	g.DELETE("/children/:id/invitations/:inviteId", api.revoke, managerMws...)

	// professional side
	pg := g.Group("/professional/invitations", withMiddleware(authed, professionalMiddleware)...)
	pg.GET("", api.received)
	pg.GET("/:inviteId", api.retrieve)
	pg.POST("/:inviteId/accept", api.accept)
	pg.POST("/:inviteId/reject", api.reject)
}

func (api *invitationApi) childInvitations(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	invs, err := api.svc.ListForChild(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "querying invitations")
	}
	if invs == nil {
		invs = []invitation.Invitation{}
	}
	return respondOK(ctx, invs)
}

func (api *invitationApi) invite(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	var data invitation.NewInvitation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvitation")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	inv, err := api.svc.Invite(ctx.Request().Context(), usr, c, data)
	if err != nil {
		return errors.Wrap(err, "inviting professional")
	}
	return respond(ctx, http.StatusCreated, inv)
}

func (api *invitationApi) revoke(ctx echo.Context) error {
	c, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Revoke(ctx.Request().Context(), c.ID, ctx.Param("inviteId")); err != nil {
		return errors.Wrap(err, "revoking invitation")
	}
	return respondMessage(ctx, "invitation revoked")
}

func (api *invitationApi) received(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var statuses []invitation.Status
	if val := ctx.QueryParam("status"); val != "" {
		for _, s := range strings.Split(val, ",") {
			statuses = append(statuses, invitation.Status(strings.TrimSpace(s)))
		}
	}

	invs, err := api.svc.ListForProfessional(ctx.Request().Context(), usr, statuses...)
	if err != nil {
		return errors.Wrap(err, "querying invitations")
	}
	if invs == nil {
		invs = []invitation.Invitation{}
	}
	return respondOK(ctx, invs)
}

func (api *invitationApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	inv, err := api.svc.Get(ctx.Request().Context(), usr, ctx.Param("inviteId"))
	if err != nil {
		return errors.Wrap(err, "finding invitation by ID")
	}
	return respondOK(ctx, inv)
}

func (api *invitationApi) accept(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	inv, err := api.svc.Accept(ctx.Request().Context(), usr, ctx.Param("inviteId"))
	if err != nil {
		return errors.Wrap(err, "accepting invitation")
	}
	return respondOK(ctx, inv)
}

func (api *invitationApi) reject(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	inv, err := api.svc.Reject(ctx.Request().Context(), usr, ctx.Param("inviteId"))
	if err != nil {
		return errors.Wrap(err, "rejecting invitation")
	}
	return respondOK(ctx, inv)
}
