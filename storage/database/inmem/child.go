package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
)

type childRepository struct {
	db *childTable
}

var _ child.Repository = (*childRepository)(nil) // interface compliance check

func NewChildRepository(db *DB) *childRepository {
	return &childRepository{db: db.child}
}

func (repo *childRepository) CreateChild(_ context.Context, c child.Child) (child.Child, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *childRepository) GetChild(_ context.Context, id string) (child.Child, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return child.Child{}, child.ErrNotFound
}

func (repo *childRepository) QueryChildren(_ context.Context, filter child.QueryFilter, ordering []core.DBOrdering) ([]child.Child, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	children := make([]child.Child, 0)
	for _, c := range repo.db.table {
		if !filter.All && !core.StringInSlice(c.UserID, filter.UserIDs) && !core.StringInSlice(c.ID, filter.IDs) {
			continue
		}
		if filter.Search != "" && !containsFold(c.FullName(), filter.Search) {
			continue
		}
		children = append(children, *c)
	}

	sort.Slice(children, func(i, j int) bool { return children[i].CreatedAt.After(children[j].CreatedAt) })
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		sort.SliceStable(children, func(a, b int) bool {
			var less, greater bool
			ca, cb := children[a], children[b]
			switch ord.Field {
			case "first_name":
				less, greater = ca.FirstName < cb.FirstName, ca.FirstName > cb.FirstName
			case "last_name":
				less, greater = ca.LastName < cb.LastName, ca.LastName > cb.LastName
			case "birth_date":
				less, greater = ca.BirthDate.Before(cb.BirthDate), ca.BirthDate.After(cb.BirthDate)
			case "journey_progress":
				less, greater = ca.JourneyProgress < cb.JourneyProgress, ca.JourneyProgress > cb.JourneyProgress
			case "created_at":
				less, greater = ca.CreatedAt.Before(cb.CreatedAt), ca.CreatedAt.After(cb.CreatedAt)
			}
			if ord.Ascending {
				return less
			}
			return greater
		})
	}
	return children, nil
}

func (repo *childRepository) UpdateChild(_ context.Context, c child.Child) (child.Child, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return child.Child{}, child.ErrNotFound
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *childRepository) DeleteChild(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return child.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
