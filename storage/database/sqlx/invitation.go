package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
)

const (
	invitationColumns = `id, child_id, invited_by, email, professional_id, message, status, created_at, updated_at, responded_at`
	invitationUniq    = "invitation_active_uniq"
)

type invitationRow struct {
	ID             string      `db:"id"`
	ChildID        string      `db:"child_id"`
	InvitedBy      string      `db:"invited_by"`
	Email          string      `db:"email"`
	ProfessionalID null.String `db:"professional_id"`
	Message        string      `db:"message"`
	Status         string      `db:"status"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	RespondedAt    null.Time   `db:"responded_at"`
}

func toInvitationRow(inv invitation.Invitation) invitationRow {
	return invitationRow{
		ID:             inv.ID,
		ChildID:        inv.ChildID,
		InvitedBy:      inv.InvitedBy,
		Email:          inv.Email,
		ProfessionalID: null.NewString(inv.ProfessionalID, inv.ProfessionalID != ""),
		Message:        inv.Message,
		Status:         string(inv.Status),
		CreatedAt:      inv.CreatedAt.UTC(),
		UpdatedAt:      inv.UpdatedAt.UTC(),
		RespondedAt:    null.TimeFromPtr(inv.RespondedAt),
	}
}

func (r invitationRow) invitation() invitation.Invitation {
	return invitation.Invitation{
		ID:             r.ID,
		ChildID:        r.ChildID,
		InvitedBy:      r.InvitedBy,
		Email:          r.Email,
		ProfessionalID: r.ProfessionalID.String,
		Message:        r.Message,
		Status:         invitation.Status(r.Status),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		RespondedAt:    r.RespondedAt.Ptr(),
	}
}

type invitationRepository struct {
	db *sqlx.DB
}

var _ invitation.Repository = (*invitationRepository)(nil) // interface compliance check

func NewInvitationRepository(db *sqlx.DB) *invitationRepository {
	return &invitationRepository{db: db}
}

func (repo *invitationRepository) CreateInvitation(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	row := toInvitationRow(inv)
	q := `INSERT INTO invitation (child_id, invited_by, email, professional_id, message, status, created_at, updated_at, responded_at)
		VALUES (:child_id, :invited_by, :email, :professional_id, :message, :status, :created_at, :updated_at, :responded_at)
		RETURNING ` + invitationColumns
	if err := namedGet(ctx, repo.db, &row, q, row); err != nil {
		if isUniqueViolation(err, invitationUniq) {
			return invitation.Invitation{}, invitation.ErrAlreadyInvited
		}
		return invitation.Invitation{}, errors.Wrap(err, "inserting invitation")
	}
	return row.invitation(), nil
}

func (repo *invitationRepository) GetInvitation(ctx context.Context, id string) (invitation.Invitation, error) {
	if !isUUID(id) {
		return invitation.Invitation{}, invitation.ErrNotFound
	}
	var row invitationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+invitationColumns+` FROM invitation WHERE id = $1`, id); err != nil {
		return invitation.Invitation{}, trapNoRowsErr(err, invitation.ErrNotFound, "getting invitation")
	}
	return row.invitation(), nil
}

func (repo *invitationRepository) QueryInvitations(ctx context.Context, filter invitation.QueryFilter) ([]invitation.Invitation, error) {
	if (filter.ChildID != "" && !isUUID(filter.ChildID)) || (filter.ProfessionalID != "" && !isUUID(filter.ProfessionalID)) {
		return []invitation.Invitation{}, nil
	}
	qb := psql.Select(invitationColumns).From("invitation").OrderBy("created_at DESC")
	if filter.ChildID != "" {
		qb = qb.Where(sq.Eq{"child_id": filter.ChildID})
	}
	if filter.Email != "" {
		qb = qb.Where("lower(email) = lower(?)", filter.Email)
	}
	if filter.ProfessionalID != "" {
		qb = qb.Where(sq.Eq{"professional_id": filter.ProfessionalID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		qb = qb.Where(sq.Eq{"status": statuses})
	}

	var rows []invitationRow
	if err := selectAll(ctx, repo.db, &rows, qb, "querying invitations"); err != nil {
		return nil, err
	}
	invs := make([]invitation.Invitation, 0, len(rows))
	for _, r := range rows {
		invs = append(invs, r.invitation())
	}
	return invs, nil
}

func (repo *invitationRepository) UpdateInvitation(ctx context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	if !isUUID(inv.ID) {
		return invitation.Invitation{}, invitation.ErrNotFound
	}
	row := toInvitationRow(inv)
	q := `UPDATE invitation SET
			professional_id = :professional_id, message = :message, status = :status,
			updated_at = :updated_at, responded_at = :responded_at
		WHERE id = :id
		RETURNING ` + invitationColumns
	if err := namedGet(ctx, repo.db, &row, q, row); err != nil {
		if isUniqueViolation(err, invitationUniq) {
			return invitation.Invitation{}, invitation.ErrAlreadyInvited
		}
		return invitation.Invitation{}, trapNoRowsErr(err, invitation.ErrNotFound, "updating invitation")
	}
	return row.invitation(), nil
}

func (repo *invitationRepository) DeleteInvitation(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.db, "invitation", id, invitation.ErrNotFound, "deleting invitation")
}
