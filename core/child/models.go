package child

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jhsobrinho/educareapp-sub009/core"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"

	birthDateLayout = "2006-01-02"
)

type Child struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"` // owner (caregiver)
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	BirthDate       time.Time `json:"birth_date"`
	Gender          string    `json:"gender"`
	JourneyProgress float64   `json:"journey_progress"` // 0 - 100
	CreatedAt       time.Time `json:"created_at"`       // UTC
	UpdatedAt       time.Time `json:"updated_at"`       // UTC
}

func (c Child) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// AgeMonths returns the number of completed months between the child's birth date and now.
func (c Child) AgeMonths(now time.Time) int {
	if c.BirthDate.IsZero() {
		return 0
	}
	birth := c.BirthDate.UTC()
	now = now.UTC()
	if now.Before(birth) {
		return 0
	}
	months := (now.Year()-birth.Year())*12 + int(now.Month()) - int(birth.Month())
	if now.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// WithAge is the representation of a Child sent to clients.
type WithAge struct {
	Child
	AgeMonths int `json:"age_months"`
}

func (c Child) WithAge(now time.Time) WithAge {
	return WithAge{Child: c, AgeMonths: c.AgeMonths(now)}
}

// NewChild contains information needed to register a new Child.
type NewChild struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
	BirthDate string `json:"birth_date" validate:"required,birthdate"`
	Gender    string `json:"gender" validate:"omitempty,oneof=male female"`
}

func (nc *NewChild) Validate(validate *validator.Validate) error {
	nc.FirstName = core.CleanString(nc.FirstName)
	nc.LastName = core.CleanString(nc.LastName)
	nc.Gender = core.CleanString(nc.Gender, true /* lower */)
	nc.BirthDate = core.CleanString(nc.BirthDate)
	return validate.Struct(nc)
}

// UpdateChild defines what information may be provided to modify an existing Child.
type UpdateChild struct {
	FirstName string  `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	BirthDate string  `json:"birth_date" validate:"omitempty,birthdate"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=male female"`
}

func (uc *UpdateChild) Validate(validate *validator.Validate) error {
	uc.FirstName = core.CleanString(uc.FirstName)
	uc.BirthDate = core.CleanString(uc.BirthDate)
	if uc.LastName != nil {
		ln := core.CleanString(*uc.LastName)
		uc.LastName = &ln
	}
	if uc.Gender != nil {
		g := core.CleanString(*uc.Gender, true /* lower */)
		if g == "" {
			uc.Gender = nil
		} else {
			uc.Gender = &g
		}
	}
	return validate.Struct(uc)
}

// ParseBirthDate parses a YYYY-MM-DD date as UTC midnight.
func ParseBirthDate(s string) (time.Time, error) {
	return time.ParseInLocation(birthDateLayout, s, time.UTC)
}

type QueryFilter struct {
	Search string `query:"search"`
	// UserIDs restricts the result to children owned by these users.
	UserIDs []string `query:"-"`
	// IDs restricts the result to these children; combined with UserIDs using OR.
	IDs []string `query:"-"`
	// All ignores UserIDs & IDs (admins).
	All bool `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

type Repository interface {
	CreateChild(ctx context.Context, c Child) (Child, error)
	GetChild(ctx context.Context, id string) (Child, error)
	QueryChildren(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Child, error)
	UpdateChild(ctx context.Context, c Child) (Child, error)
	DeleteChild(ctx context.Context, id string) error
}
