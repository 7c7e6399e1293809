package journey

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(id string, dim Dimension, min, max, order int) Question {
	return Question{ID: id, Dimension: dim, MinMonths: min, MaxMonths: max, OrderIndex: order, IsActive: true}
}

var bankQuestions = []Question{
	question("q6", DimensionLanguage, 13, 18, 2),
	question("q1", DimensionGrossMotor, 0, 6, 1),
	question("q5", DimensionCognitive, 13, 18, 1),
	question("q3", DimensionLanguage, 7, 12, 1),
	question("q2", DimensionFineMotor, 0, 6, 0),
	question("q4", DimensionGrossMotor, 7, 12, 2),
}

func ids(questions []Question) []string {
	res := make([]string, 0, len(questions))
	for _, q := range questions {
		res = append(res, q.ID)
	}
	return res
}

func TestGroupModules(t *testing.T) {
	modules := GroupModules(bankQuestions, 9)
	require.Len(t, modules, 3)

	tests := []struct {
		min, max int
		status   ModuleStatus
		unlocked bool
		ids      []string
		title    string
	}{
		{0, 6, ModulePast, true, []string{"q2", "q1"}, "0 a 6 meses"},
		{7, 12, ModuleCurrent, true, []string{"q3", "q4"}, "7 a 12 meses"},
		{13, 18, ModuleLocked, false, []string{"q5", "q6"}, "13 a 18 meses"},
	}
	for i, tt := range tests {
		m := modules[i]
		assert.Equal(t, tt.min, m.MinMonths)
		assert.Equal(t, tt.max, m.MaxMonths)
		assert.Equal(t, tt.status, m.Status)
		assert.Equal(t, tt.unlocked, m.Unlocked)
		assert.Equal(t, tt.ids, ids(m.Questions))
		assert.Equal(t, len(tt.ids), m.QuestionCount)
		assert.Equal(t, tt.title, m.Title)
	}
	assert.Equal(t, []Dimension{DimensionGrossMotor, DimensionFineMotor}, modules[0].Dimensions)
}

func TestGroupModules_DoesNotMutateInput(t *testing.T) {
	in := append([]Question(nil), bankQuestions...)
	_ = GroupModules(in, 0)
	assert.Equal(t, bankQuestions, in)
}

func TestActiveQuestions(t *testing.T) {
	tests := []struct {
		name string
		age  int
		want []string
	}{
		{"newborn", 0, []string{"q2", "q1"}},
		{"lower bound", 7, []string{"q3", "q4"}},
		{"upper bound", 12, []string{"q3", "q4"}},
		{"oldest module", 18, []string{"q5", "q6"}},
		{"older than every module", 40, []string{"q5", "q6"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ActiveQuestions(GroupModules(bankQuestions, tt.age))))
		})
	}
}

func TestActiveQuestions_Gap(t *testing.T) {
	questions := []Question{
		question("a", DimensionLanguage, 0, 3, 0),
		question("b", DimensionLanguage, 10, 12, 0),
	}
	// no module covers 5 months: the most recent unlocked module is used
	assert.Equal(t, []string{"a"}, ids(ActiveQuestions(GroupModules(questions, 5))))

	// nothing unlocked yet
	questions = []Question{question("c", DimensionLanguage, 6, 9, 0)}
	assert.Empty(t, ActiveQuestions(GroupModules(questions, 2)))
}

func TestActiveQuestions_OverlappingModules(t *testing.T) {
	questions := []Question{
		question("a", DimensionLanguage, 0, 12, 0),
		question("b", DimensionCognitive, 6, 18, 0),
	}
	assert.Equal(t, []string{"a", "b"}, ids(ActiveQuestions(GroupModules(questions, 8))))
}

type questionRepoStub struct {
	QuestionRepository
	questions []Question
	err       error
	calls     int
}

func (r *questionRepoStub) QueryQuestions(_ context.Context, _ QuestionFilter) ([]Question, error) {
	r.calls++
	return r.questions, r.err
}

type memCache struct {
	questions []Question
	ok        bool
}

func (c *memCache) Get(context.Context) ([]Question, bool, error) { return c.questions, c.ok, nil }
func (c *memCache) Set(_ context.Context, qs []Question) error {
	c.questions, c.ok = qs, true
	return nil
}
func (c *memCache) Invalidate(context.Context) error {
	c.questions, c.ok = nil, false
	return nil
}

type logStub struct{ errors []string }

func (l *logStub) Debug(string, ...interface{}) {}
func (l *logStub) Info(string, ...interface{})  {}
func (l *logStub) Warn(string, ...interface{})  {}
func (l *logStub) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}
func (l *logStub) Fatal(string, ...interface{}) {}

func TestBank_Modules_LogsAndReturnsEmptyOnError(t *testing.T) {
	logger := new(logStub)
	bank := NewBank(&questionRepoStub{err: errors.New("connection refused")}, nil, logger)

	modules := bank.Modules(context.Background(), 10)
	assert.NotNil(t, modules)
	assert.Empty(t, modules)
	assert.Empty(t, bank.ActiveQuestions(context.Background(), 10))
	assert.Len(t, logger.errors, 2)
}

func TestBank_UsesCache(t *testing.T) {
	repo := &questionRepoStub{questions: bankQuestions}
	cache := new(memCache)
	bank := NewBank(repo, cache, new(logStub))

	ctx := context.Background()
	assert.Len(t, bank.Modules(ctx, 3), 3)
	assert.Len(t, bank.Modules(ctx, 3), 3)
	assert.Equal(t, 1, repo.calls)

	bank.invalidate(ctx)
	assert.Len(t, bank.ActiveQuestions(ctx, 3), 2)
	assert.Equal(t, 2, repo.calls)
}
