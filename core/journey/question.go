package journey

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jhsobrinho/educareapp-sub009/core"
)

var (
	ErrQuestionNotFound = core.NewNotFoundError("question not found")
	// ErrQuestionInUse is returned when deleting a question which was already answered; deactivate it instead.
	ErrQuestionInUse = core.NewConflictError("question was already answered and cannot be deleted")
	ErrDuplicateCode = core.NewConflictError("a question with this code already exists")
)

// Question is an entry of the question bank.
type Question struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"` // stable key used by the seed files
	Dimension       Dimension `json:"dimension"`
	Text            string    `json:"text"`
	MinMonths       int       `json:"min_months"`
	MaxMonths       int       `json:"max_months"`
	OrderIndex      int       `json:"order_index"`
	IsActive        bool      `json:"is_active"`
	FeedbackYes     string    `json:"feedback_yes"`
	FeedbackUnknown string    `json:"feedback_unknown"`
	FeedbackNo      string    `json:"feedback_no"`
	TipsYes         []string  `json:"tips_yes"`
	TipsUnknown     []string  `json:"tips_unknown"`
	TipsNo          []string  `json:"tips_no"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Covers reports whether ageMonths is within the question's age range.
func (q Question) Covers(ageMonths int) bool {
	return q.MinMonths <= ageMonths && ageMonths <= q.MaxMonths
}

// NewQuestion contains information needed to add a question to the bank.
type NewQuestion struct {
	Code            string   `json:"code" yaml:"code" validate:"omitempty,max=64"`
	Dimension       string   `json:"dimension" yaml:"dimension" validate:"required,dimension"`
	Text            string   `json:"text" yaml:"text" validate:"required,max=500"`
	MinMonths       int      `json:"min_months" yaml:"min_months" validate:"gte=0,lte=216"`
	MaxMonths       int      `json:"max_months" yaml:"max_months" validate:"gtefield=MinMonths,lte=216"`
	OrderIndex      int      `json:"order_index" yaml:"order_index" validate:"gte=0"`
	IsActive        *bool    `json:"is_active" yaml:"is_active"`
	FeedbackYes     string   `json:"feedback_yes" yaml:"feedback_yes" validate:"max=500"`
	FeedbackUnknown string   `json:"feedback_unknown" yaml:"feedback_unknown" validate:"max=500"`
	FeedbackNo      string   `json:"feedback_no" yaml:"feedback_no" validate:"max=500"`
	TipsYes         []string `json:"tips_yes" yaml:"tips_yes" validate:"dive,required,max=500"`
	TipsUnknown     []string `json:"tips_unknown" yaml:"tips_unknown" validate:"dive,required,max=500"`
	TipsNo          []string `json:"tips_no" yaml:"tips_no" validate:"dive,required,max=500"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Code = core.CleanString(nq.Code, true /* lower */)
	nq.Dimension = core.CleanString(nq.Dimension, true /* lower */)
	nq.Text = core.CleanString(nq.Text)
	nq.FeedbackYes = core.CleanString(nq.FeedbackYes)
	nq.FeedbackUnknown = core.CleanString(nq.FeedbackUnknown)
	nq.FeedbackNo = core.CleanString(nq.FeedbackNo)
	nq.TipsYes = cleanTips(nq.TipsYes)
	nq.TipsUnknown = cleanTips(nq.TipsUnknown)
	nq.TipsNo = cleanTips(nq.TipsNo)
	return validate.Struct(nq)
}

// UpdateQuestion defines what information may be provided to modify an existing Question.
type UpdateQuestion struct {
	Dimension       string    `json:"dimension" validate:"omitempty,dimension"`
	Text            string    `json:"text" validate:"omitempty,max=500"`
	MinMonths       *int      `json:"min_months" validate:"omitempty,gte=0,lte=216"`
	MaxMonths       *int      `json:"max_months" validate:"omitempty,gte=0,lte=216"`
	OrderIndex      *int      `json:"order_index" validate:"omitempty,gte=0"`
	IsActive        *bool     `json:"is_active"`
	FeedbackYes     *string   `json:"feedback_yes" validate:"omitempty,max=500"`
	FeedbackUnknown *string   `json:"feedback_unknown" validate:"omitempty,max=500"`
	FeedbackNo      *string   `json:"feedback_no" validate:"omitempty,max=500"`
	TipsYes         *[]string `json:"tips_yes" validate:"omitempty,dive,required,max=500"`
	TipsUnknown     *[]string `json:"tips_unknown" validate:"omitempty,dive,required,max=500"`
	TipsNo          *[]string `json:"tips_no" validate:"omitempty,dive,required,max=500"`
}

func (uq *UpdateQuestion) Validate(validate *validator.Validate) error {
	uq.Dimension = core.CleanString(uq.Dimension, true /* lower */)
	uq.Text = core.CleanString(uq.Text)
	for _, s := range []*string{uq.FeedbackYes, uq.FeedbackUnknown, uq.FeedbackNo} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	for _, tips := range []*[]string{uq.TipsYes, uq.TipsUnknown, uq.TipsNo} {
		if tips != nil {
			*tips = cleanTips(*tips)
		}
	}
	return validate.Struct(uq)
}

func cleanTips(tips []string) []string {
	cleaned := make([]string, 0, len(tips))
	for _, t := range tips {
		if t = core.CleanString(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return cleaned
}

type QuestionFilter struct {
	Dimension string
	Active    *bool
	// AgeMonths restricts the result to the questions covering this age.
	AgeMonths *int
	IDs       []string
	Codes     []string
}

// QuestionRepository returns questions sorted by min_months, max_months & order_index.
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	QueryQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error)
	UpdateQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

// QuestionCache holds the active question bank.
type QuestionCache interface {
	Get(ctx context.Context) ([]Question, bool, error)
	Set(ctx context.Context, questions []Question) error
	Invalidate(ctx context.Context) error
}

// NopCache never caches anything.
type NopCache struct{}

func (NopCache) Get(context.Context) ([]Question, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, []Question) error         { return nil }
func (NopCache) Invalidate(context.Context) error              { return nil }
