package invitation

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
)

var (
	ErrNotFound       = core.NewNotFoundError("invitation not found")
	ErrNotPending     = core.NewConflictError("invitation was already answered")
	ErrAlreadyInvited = core.NewConflictError("this professional was already invited")
	ErrSelfInvitation = core.NewConflictError("you cannot invite yourself")
)

type Service struct {
	repo    Repository
	mailSvc core.EmailService
	nowFunc func() time.Time
}

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, nowFunc: time.Now}
}

// Invite invites a professional, by email, to follow the child.
func (svc *Service) Invite(ctx context.Context, inviter user.User, c child.Child, ni NewInvitation) (Invitation, error) {
	if strings.EqualFold(inviter.Email, ni.Email) {
		return Invitation{}, ErrSelfInvitation
	}
	existing, err := svc.repo.QueryInvitations(ctx, QueryFilter{
		ChildID:  c.ID,
		Email:    ni.Email,
		Statuses: []Status{StatusPending, StatusApproved},
	})
	if err != nil {
		return Invitation{}, errors.Wrap(err, "querying invitations")
	}
	if len(existing) > 0 {
		return Invitation{}, ErrAlreadyInvited
	}

	now := svc.nowFunc().UTC()
	inv, err := svc.repo.CreateInvitation(ctx, Invitation{
		ChildID:   c.ID,
		InvitedBy: inviter.ID,
		Email:     ni.Email,
		Message:   ni.Message,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Invitation{}, errors.Wrap(err, "creating invitation")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: inv.Email}},
		Subject:      fmt.Sprintf("%s convidou você para acompanhar %s", inviter.Name, c.FirstName),
		TemplateName: "invitation",
		TemplateData: map[string]interface{}{
			"InviterName": inviter.Name,
			"ChildName":   c.FirstName,
			"Message":     inv.Message,
			"InviteID":    inv.ID,
		},
	})
	return inv, nil
}

// Get returns the invitation if it was sent to the professional.
func (svc *Service) Get(ctx context.Context, professional user.User, id string) (Invitation, error) {
	inv, err := svc.repo.GetInvitation(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	if !strings.EqualFold(inv.Email, professional.Email) {
		return Invitation{}, ErrNotFound
	}
	return inv, nil
}

// ListForProfessional returns the invitations sent to the professional's email.
func (svc *Service) ListForProfessional(ctx context.Context, professional user.User, statuses ...Status) ([]Invitation, error) {
	return svc.repo.QueryInvitations(ctx, QueryFilter{
		Email:    strings.ToLower(professional.Email),
		Statuses: statuses,
	})
}

func (svc *Service) ListForChild(ctx context.Context, childID string) ([]Invitation, error) {
	return svc.repo.QueryInvitations(ctx, QueryFilter{ChildID: childID})
}

func (svc *Service) Accept(ctx context.Context, professional user.User, id string) (Invitation, error) {
	return svc.respond(ctx, professional, id, StatusApproved)
}

func (svc *Service) Reject(ctx context.Context, professional user.User, id string) (Invitation, error) {
	return svc.respond(ctx, professional, id, StatusRejected)
}

func (svc *Service) respond(ctx context.Context, professional user.User, id string, status Status) (Invitation, error) {
	inv, err := svc.Get(ctx, professional, id)
	if err != nil {
		return Invitation{}, err
	}
	if inv.Status != StatusPending {
		return Invitation{}, ErrNotPending
	}
	now := svc.nowFunc().UTC()
	inv.Status = status
	inv.UpdatedAt = now
	inv.RespondedAt = &now
	if status == StatusApproved {
		inv.ProfessionalID = professional.ID
	}
	inv, err = svc.repo.UpdateInvitation(ctx, inv)
	return inv, errors.Wrap(err, "updating invitation")
}

// Revoke deletes an invitation of the child, whatever its status.
func (svc *Service) Revoke(ctx context.Context, childID, id string) error {
	inv, err := svc.repo.GetInvitation(ctx, id)
	if err != nil {
		return err
	}
	if inv.ChildID != childID {
		return ErrNotFound
	}
	return svc.repo.DeleteInvitation(ctx, id)
}

// SharedChildIDs returns the ids of the children the professional has access to.
func (svc *Service) SharedChildIDs(ctx context.Context, professionalID string) ([]string, error) {
	invs, err := svc.repo.QueryInvitations(ctx, QueryFilter{
		ProfessionalID: professionalID,
		Statuses:       []Status{StatusApproved},
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying invitations")
	}
	ids := make([]string, 0, len(invs))
	for _, inv := range invs {
		if !core.StringInSlice(inv.ChildID, ids) {
			ids = append(ids, inv.ChildID)
		}
	}
	return ids, nil
}

// HasAccess reports whether the professional accepted an invitation for the child.
func (svc *Service) HasAccess(ctx context.Context, professionalID, childID string) (bool, error) {
	if professionalID == "" {
		return false, nil
	}
	invs, err := svc.repo.QueryInvitations(ctx, QueryFilter{
		ChildID:        childID,
		ProfessionalID: professionalID,
		Statuses:       []Status{StatusApproved},
	})
	if err != nil {
		return false, errors.Wrap(err, "querying invitations")
	}
	return len(invs) > 0, nil
}
