package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
)

type invitationRepository struct {
	db *invitationTable
}

var _ invitation.Repository = (*invitationRepository)(nil) // interface compliance check

func NewInvitationRepository(db *DB) *invitationRepository {
	return &invitationRepository{db: db.invitation}
}

func cloneInvitation(inv invitation.Invitation) invitation.Invitation {
	if inv.RespondedAt != nil {
		t := *inv.RespondedAt
		inv.RespondedAt = &t
	}
	return inv
}

func (repo *invitationRepository) CreateInvitation(_ context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	inv.ID = uuid.New().String()
	inv = cloneInvitation(inv)
	repo.db.table[inv.ID] = &inv
	return cloneInvitation(inv), nil
}

func (repo *invitationRepository) GetInvitation(_ context.Context, id string) (invitation.Invitation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inv, ok := repo.db.table[id]; ok {
		return cloneInvitation(*inv), nil
	}
	return invitation.Invitation{}, invitation.ErrNotFound
}

func (repo *invitationRepository) QueryInvitations(_ context.Context, filter invitation.QueryFilter) ([]invitation.Invitation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	invs := make([]invitation.Invitation, 0)
	for _, inv := range repo.db.table {
		switch {
		case filter.ChildID != "" && inv.ChildID != filter.ChildID,
			filter.Email != "" && !strings.EqualFold(inv.Email, filter.Email),
			filter.ProfessionalID != "" && inv.ProfessionalID != filter.ProfessionalID,
			len(filter.Statuses) > 0 && !hasInvitationStatus(filter.Statuses, inv.Status):
			continue
		}
		invs = append(invs, cloneInvitation(*inv))
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].CreatedAt.After(invs[j].CreatedAt) })
	return invs, nil
}

func hasInvitationStatus(statuses []invitation.Status, status invitation.Status) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}

func (repo *invitationRepository) UpdateInvitation(_ context.Context, inv invitation.Invitation) (invitation.Invitation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[inv.ID]; !ok {
		return invitation.Invitation{}, invitation.ErrNotFound
	}
	inv = cloneInvitation(inv)
	repo.db.table[inv.ID] = &inv
	return cloneInvitation(inv), nil
}

func (repo *invitationRepository) DeleteInvitation(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return invitation.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
