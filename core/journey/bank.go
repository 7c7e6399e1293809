package journey

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core"
)

// Bank gives access to the question bank, grouped into age modules.
type Bank struct {
	repo    QuestionRepository
	cache   QuestionCache
	logger  core.Logger
	nowFunc func() time.Time
}

func NewBank(repo QuestionRepository, cache QuestionCache, logger core.Logger) *Bank {
	if cache == nil {
		cache = NopCache{}
	}
	return &Bank{repo: repo, cache: cache, logger: logger, nowFunc: time.Now}
}

// activeQuestions loads every active question, from the cache when possible.
func (b *Bank) activeQuestions(ctx context.Context) ([]Question, error) {
	questions, ok, err := b.cache.Get(ctx)
	if err != nil {
		b.logger.Warn(fmt.Sprintf("journey.Bank: reading question cache: %v", err), err)
	} else if ok {
		return questions, nil
	}

	active := true
	questions, err = b.repo.QueryQuestions(ctx, QuestionFilter{Active: &active})
	if err != nil {
		return nil, errors.Wrap(err, "loading questions")
	}
	if err = b.cache.Set(ctx, questions); err != nil {
		b.logger.Warn(fmt.Sprintf("journey.Bank: writing question cache: %v", err), err)
	}
	return questions, nil
}

// Modules lists every module of the bank with its status for a child of ageMonths.
// Data access errors are logged and yield an empty list.
func (b *Bank) Modules(ctx context.Context, ageMonths int) []Module {
	questions, err := b.activeQuestions(ctx)
	if err != nil {
		b.logger.Error(fmt.Sprintf("journey.Bank.Modules(%d): %v", ageMonths, err), err)
		return []Module{}
	}
	modules := GroupModules(questions, ageMonths)
	if modules == nil {
		return []Module{}
	}
	return modules
}

// ActiveQuestions returns the questions a child of ageMonths should answer.
// Data access errors are logged and yield an empty list.
func (b *Bank) ActiveQuestions(ctx context.Context, ageMonths int) []Question {
	return ActiveQuestions(b.Modules(ctx, ageMonths))
}

// QuestionsByID returns the questions with the given ids, active or not, in the order of ids.
func (b *Bank) QuestionsByID(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	questions, err := b.repo.QueryQuestions(ctx, QuestionFilter{IDs: ids})
	if err != nil {
		return nil, errors.Wrap(err, "loading session questions")
	}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// Admin operations

func (b *Bank) Query(ctx context.Context, filter QuestionFilter) ([]Question, error) {
	return b.repo.QueryQuestions(ctx, filter)
}

func (b *Bank) Get(ctx context.Context, id string) (Question, error) {
	return b.repo.GetQuestion(ctx, id)
}

func (b *Bank) Create(ctx context.Context, nq NewQuestion) (Question, error) {
	now := b.nowFunc().UTC()
	q := Question{CreatedAt: now}
	applyNewQuestion(&q, nq, now)
	q, err := b.repo.CreateQuestion(ctx, q)
	if err != nil {
		return Question{}, errors.Wrap(err, "creating question")
	}
	b.invalidate(ctx)
	return q, nil
}

func (b *Bank) Update(ctx context.Context, q Question, uq UpdateQuestion) (Question, error) {
	if uq.Dimension != "" {
		q.Dimension = Dimension(uq.Dimension)
	}
	if uq.Text != "" {
		q.Text = uq.Text
	}
	if uq.MinMonths != nil {
		q.MinMonths = *uq.MinMonths
	}
	if uq.MaxMonths != nil {
		q.MaxMonths = *uq.MaxMonths
	}
	if q.MaxMonths < q.MinMonths {
		return Question{}, core.NewValidationError(
			errors.New("invalid age range"),
			core.FieldError{Field: "max_months", Error: "max_months must be greater than or equal to min_months"},
		)
	}
	if uq.OrderIndex != nil {
		q.OrderIndex = *uq.OrderIndex
	}
	if uq.IsActive != nil {
		q.IsActive = *uq.IsActive
	}
	if uq.FeedbackYes != nil {
		q.FeedbackYes = *uq.FeedbackYes
	}
	if uq.FeedbackUnknown != nil {
		q.FeedbackUnknown = *uq.FeedbackUnknown
	}
	if uq.FeedbackNo != nil {
		q.FeedbackNo = *uq.FeedbackNo
	}
	if uq.TipsYes != nil {
		q.TipsYes = *uq.TipsYes
	}
	if uq.TipsUnknown != nil {
		q.TipsUnknown = *uq.TipsUnknown
	}
	if uq.TipsNo != nil {
		q.TipsNo = *uq.TipsNo
	}
	q.UpdatedAt = b.nowFunc().UTC()

	q, err := b.repo.UpdateQuestion(ctx, q)
	if err != nil {
		return Question{}, errors.Wrap(err, "updating question")
	}
	b.invalidate(ctx)
	return q, nil
}

func (b *Bank) Delete(ctx context.Context, id string) error {
	if err := b.repo.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	b.invalidate(ctx)
	return nil
}

// Upsert creates or updates the questions, matched by code. It returns the number
// of created & updated questions.
func (b *Bank) Upsert(ctx context.Context, nqs []NewQuestion) (created, updated int, err error) {
	codes := make([]string, 0, len(nqs))
	for _, nq := range nqs {
		if nq.Code == "" {
			return 0, 0, errors.Errorf("question %q has no code", nq.Text)
		}
		codes = append(codes, nq.Code)
	}
	existing, err := b.repo.QueryQuestions(ctx, QuestionFilter{Codes: codes})
	if err != nil {
		return 0, 0, errors.Wrap(err, "loading existing questions")
	}
	byCode := make(map[string]Question, len(existing))
	for _, q := range existing {
		byCode[q.Code] = q
	}

	defer b.invalidate(ctx)
	now := b.nowFunc().UTC()
	for _, nq := range nqs {
		if q, ok := byCode[nq.Code]; ok {
			applyNewQuestion(&q, nq, now)
			if _, err = b.repo.UpdateQuestion(ctx, q); err != nil {
				return created, updated, errors.Wrapf(err, "updating question %s", nq.Code)
			}
			updated++
			continue
		}
		q := Question{CreatedAt: now}
		applyNewQuestion(&q, nq, now)
		if _, err = b.repo.CreateQuestion(ctx, q); err != nil {
			return created, updated, errors.Wrapf(err, "creating question %s", nq.Code)
		}
		created++
	}
	return created, updated, nil
}

func applyNewQuestion(q *Question, nq NewQuestion, now time.Time) {
	q.Code = nq.Code
	q.Dimension = Dimension(nq.Dimension)
	q.Text = nq.Text
	q.MinMonths = nq.MinMonths
	q.MaxMonths = nq.MaxMonths
	q.OrderIndex = nq.OrderIndex
	q.IsActive = nq.IsActive == nil || *nq.IsActive
	q.FeedbackYes = nq.FeedbackYes
	q.FeedbackUnknown = nq.FeedbackUnknown
	q.FeedbackNo = nq.FeedbackNo
	q.TipsYes = nq.TipsYes
	q.TipsUnknown = nq.TipsUnknown
	q.TipsNo = nq.TipsNo
	q.UpdatedAt = now
}

func (b *Bank) invalidate(ctx context.Context) {
	if err := b.cache.Invalidate(ctx); err != nil {
		b.logger.Warn(fmt.Sprintf("journey.Bank: invalidating question cache: %v", err), err)
	}
}
