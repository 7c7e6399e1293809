package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

type questionRepository struct {
	db *questionTable
}

var _ journey.QuestionRepository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *DB) *questionRepository {
	return &questionRepository{db: db.question}
}

func cloneQuestion(q journey.Question) journey.Question {
	q.TipsYes = copyStrings(q.TipsYes)
	q.TipsUnknown = copyStrings(q.TipsUnknown)
	q.TipsNo = copyStrings(q.TipsNo)
	return q
}

// codeTaken must be called with the lock held.
func (repo *questionRepository) codeTaken(q journey.Question) bool {
	if q.Code == "" {
		return false
	}
	for id, other := range repo.db.table {
		if id != q.ID && other.Code == q.Code {
			return true
		}
	}
	return false
}

func (repo *questionRepository) CreateQuestion(_ context.Context, q journey.Question) (journey.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.codeTaken(q) {
		return journey.Question{}, journey.ErrDuplicateCode
	}
	q.ID = uuid.New().String()
	q = cloneQuestion(q)
	repo.db.table[q.ID] = &q
	return cloneQuestion(q), nil
}

func (repo *questionRepository) GetQuestion(_ context.Context, id string) (journey.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return cloneQuestion(*q), nil
	}
	return journey.Question{}, journey.ErrQuestionNotFound
}

func (repo *questionRepository) QueryQuestions(_ context.Context, filter journey.QuestionFilter) ([]journey.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]journey.Question, 0)
	for _, q := range repo.db.table {
		switch {
		case filter.Dimension != "" && string(q.Dimension) != filter.Dimension,
			filter.Active != nil && q.IsActive != *filter.Active,
			filter.AgeMonths != nil && !q.Covers(*filter.AgeMonths),
			filter.IDs != nil && !core.StringInSlice(q.ID, filter.IDs),
			filter.Codes != nil && !core.StringInSlice(q.Code, filter.Codes):
			continue
		}
		questions = append(questions, cloneQuestion(*q))
	}
	sort.Slice(questions, func(i, j int) bool {
		qi, qj := questions[i], questions[j]
		if qi.MinMonths != qj.MinMonths {
			return qi.MinMonths < qj.MinMonths
		}
		if qi.MaxMonths != qj.MaxMonths {
			return qi.MaxMonths < qj.MaxMonths
		}
		if qi.OrderIndex != qj.OrderIndex {
			return qi.OrderIndex < qj.OrderIndex
		}
		return qi.ID < qj.ID
	})
	return questions, nil
}

func (repo *questionRepository) UpdateQuestion(_ context.Context, q journey.Question) (journey.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[q.ID]; !ok {
		return journey.Question{}, journey.ErrQuestionNotFound
	}
	if repo.codeTaken(q) {
		return journey.Question{}, journey.ErrDuplicateCode
	}
	q = cloneQuestion(q)
	repo.db.table[q.ID] = &q
	return cloneQuestion(q), nil
}

func (repo *questionRepository) DeleteQuestion(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return journey.ErrQuestionNotFound
	}
	delete(repo.db.table, id)
	return nil
}
