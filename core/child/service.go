package child

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core"
)

var ErrNotFound = core.NewNotFoundError("child not found")

type Service struct {
	repo    Repository
	nowFunc func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

func (svc *Service) Now() time.Time {
	return svc.nowFunc()
}

func (svc *Service) Create(ctx context.Context, ownerID string, nc NewChild) (Child, error) {
	birthDate, err := ParseBirthDate(nc.BirthDate)
	if err != nil {
		return Child{}, core.NewValidationError(err, core.FieldError{Field: "birth_date", Error: "invalid date"})
	}
	now := svc.nowFunc().UTC()
	c := Child{
		UserID:    ownerID,
		FirstName: nc.FirstName,
		LastName:  nc.LastName,
		BirthDate: birthDate,
		Gender:    nc.Gender,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c, err = svc.repo.CreateChild(ctx, c)
	return c, errors.Wrap(err, "creating child")
}

func (svc *Service) Get(ctx context.Context, id string) (Child, error) {
	return svc.repo.GetChild(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Child, error) {
	ordering = core.CleanOrderings(ordering, "first_name", "last_name", "birth_date", "journey_progress", "created_at")
	return svc.repo.QueryChildren(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, c Child, uc UpdateChild) (Child, error) {
	if uc.FirstName != "" {
		c.FirstName = uc.FirstName
	}
	if uc.LastName != nil {
		c.LastName = *uc.LastName
	}
	if uc.Gender != nil {
		c.Gender = *uc.Gender
	}
	if uc.BirthDate != "" {
		birthDate, err := ParseBirthDate(uc.BirthDate)
		if err != nil {
			return Child{}, core.NewValidationError(err, core.FieldError{Field: "birth_date", Error: "invalid date"})
		}
		c.BirthDate = birthDate
	}
	c.UpdatedAt = svc.nowFunc().UTC()
	c, err := svc.repo.UpdateChild(ctx, c)
	return c, errors.Wrap(err, "updating child")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteChild(ctx, id)
}

// SetJourneyProgress stores the child's questionnaire progress, clamped to [0, 100].
func (svc *Service) SetJourneyProgress(ctx context.Context, childID string, pct float64) error {
	c, err := svc.repo.GetChild(ctx, childID)
	if err != nil {
		return errors.Wrap(err, "finding child")
	}
	c.JourneyProgress = math.Max(0, math.Min(100, pct))
	c.UpdatedAt = svc.nowFunc().UTC()
	_, err = svc.repo.UpdateChild(ctx, c)
	return errors.Wrap(err, "updating journey progress")
}
