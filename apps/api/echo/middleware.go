package echoapi

import (
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
)

const (
	contextChildKey   = "child"
	contextAccessKey  = "childAccess"
	contextSessionKey = "session"
)

// childAccess is the relation of the context user to the context child.
type childAccess int

const (
	accessNone   childAccess = iota
	accessShared             // professional with an approved invitation
	accessOwner
	accessAdmin
)

// withMiddleware returns a new chain made of mws followed by more.
func withMiddleware(mws []echo.MiddlewareFunc, more ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	chain := make([]echo.MiddlewareFunc, 0, len(mws)+len(more))
	chain = append(chain, mws...)
	return append(chain, more...)
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) {
				if match := claims.Roles[i]; role == match {
					return true
				}
			}
		}
	}
	return false
}

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin() && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func professionalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if !usr.IsProfessional() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

func resolveChildAccess(ctx echo.Context, usr user.User, c child.Child, invSvc *invitation.Service) (childAccess, error) {
	switch {
	case usr.IsAdmin():
		return accessAdmin, nil
	case c.UserID == usr.ID:
		return accessOwner, nil
	case usr.IsProfessional():
		ok, err := invSvc.HasAccess(ctx.Request().Context(), usr.ID, c.ID)
		if err != nil {
			return accessNone, errors.Wrap(err, "checking invitations")
		}
		if ok {
			return accessShared, nil
		}
	}
	return accessNone, nil
}

// childMiddleware loads the `:id` child if the context user may see it.
// Children the user has no access to are reported as not found.
func childMiddleware(childSvc *child.Service, invSvc *invitation.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			c, err := childSvc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding child by ID")
			}
			access, err := resolveChildAccess(ctx, usr, c, invSvc)
			if err != nil {
				return err
			}
			if access == accessNone {
				return errHttpNotFound
			}
			ctx.Set(contextChildKey, c)
			ctx.Set(contextAccessKey, access)
			return next(ctx)
		}
	}
}

// childManagerMiddleware only lets the owner of the context child (or an admin) through.
func childManagerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if access, _ := ctx.Get(contextAccessKey).(childAccess); access < accessOwner {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

func getContextChild(ctx echo.Context) (child.Child, error) {
	if c, ok := ctx.Get(contextChildKey).(child.Child); ok {
		return c, nil
	}
	return child.Child{}, errors.New("child object not found in echo.Context")
}

// sessionMiddleware loads the `:id` session & its child. A session is visible to the user who
// runs it, to the child's owner and to admins.
func sessionMiddleware(journeySvc *journey.Service, childSvc *child.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			reqCtx := ctx.Request().Context()
			s, err := journeySvc.GetSession(reqCtx, ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding session by ID")
			}
			c, err := childSvc.Get(reqCtx, s.ChildID)
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding child by ID")
			}
			if !(s.UserID == usr.ID || c.UserID == usr.ID || usr.IsAdmin()) {
				return errHttpNotFound
			}
			ctx.Set(contextSessionKey, s)
			ctx.Set(contextChildKey, c)
			return next(ctx)
		}
	}
}

func getContextSession(ctx echo.Context) (journey.Session, error) {
	if s, ok := ctx.Get(contextSessionKey).(journey.Session); ok {
		return s, nil
	}
	return journey.Session{}, errors.New("session object not found in echo.Context")
}
