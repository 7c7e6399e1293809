package invitation

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jhsobrinho/educareapp-sub009/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Invitation grants a professional access to a child once accepted.
type Invitation struct {
	ID             string     `json:"id"`
	ChildID        string     `json:"child_id"`
	InvitedBy      string     `json:"invited_by"`
	Email          string     `json:"email"`
	ProfessionalID string     `json:"professional_id"` // set on acceptance
	Message        string     `json:"message"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	RespondedAt    *time.Time `json:"responded_at"`
}

// NewInvitation contains information needed to invite a professional.
type NewInvitation struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"max=500"`
}

func (ni *NewInvitation) Validate(validate *validator.Validate) error {
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	ni.Message = core.CleanString(ni.Message)
	return validate.Struct(ni)
}

type QueryFilter struct {
	ChildID        string
	Email          string
	ProfessionalID string
	Statuses       []Status
}

// Repository returns invitations most recent first.
type Repository interface {
	CreateInvitation(ctx context.Context, inv Invitation) (Invitation, error)
	GetInvitation(ctx context.Context, id string) (Invitation, error)
	QueryInvitations(ctx context.Context, filter QueryFilter) ([]Invitation, error)
	UpdateInvitation(ctx context.Context, inv Invitation) (Invitation, error)
	DeleteInvitation(ctx context.Context, id string) error
}
