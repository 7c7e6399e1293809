package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func responses(pairs ...interface{}) []Response {
	var rs []Response
	for i := 0; i < len(pairs); i += 2 {
		rs = append(rs, Response{Dimension: pairs[i].(Dimension), Answer: pairs[i+1].(Answer)})
	}
	return rs
}

func TestScorer_Generate(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	sess := Session{ID: "s1", ChildID: "c1", UserID: "u1", TotalQuestions: 4, AnsweredQuestions: 3}
	sc := NewScorer()

	tests := []struct {
		name           string
		responses      []Response
		wantScores     map[Dimension]float64
		wantOverall    float64
		wantConcerns   []Dimension
		wantRecsCount  int
		wantCompletion float64
	}{
		{
			name: "mixed dimensions",
			responses: responses(
				DimensionGrossMotor, AnswerYes,
				DimensionGrossMotor, AnswerSometimes,
				DimensionLanguage, AnswerNo,
			),
			wantScores:     map[Dimension]float64{DimensionGrossMotor: 75, DimensionLanguage: 0},
			wantOverall:    37.5,
			wantConcerns:   []Dimension{DimensionLanguage},
			wantRecsCount:  3, // 2 dimensions + professional advice
			wantCompletion: 75,
		},
		{
			name: "unweighted mean",
			responses: responses(
				DimensionGrossMotor, AnswerYes,
				DimensionGrossMotor, AnswerYes,
				DimensionGrossMotor, AnswerYes,
				DimensionCognitive, AnswerSometimes,
			),
			wantScores:     map[Dimension]float64{DimensionGrossMotor: 100, DimensionCognitive: 50},
			wantOverall:    75,
			wantConcerns:   []Dimension{},
			wantRecsCount:  2,
			wantCompletion: 75,
		},
		{
			name:           "no responses",
			wantScores:     map[Dimension]float64{},
			wantOverall:    0,
			wantConcerns:   []Dimension{},
			wantRecsCount:  0,
			wantCompletion: 75,
		},
		{
			name: "invalid answers are ignored",
			responses: responses(
				DimensionFineMotor, Answer(0),
				DimensionFineMotor, Answer(7),
				DimensionSelfCare, AnswerNo,
			),
			wantScores:     map[Dimension]float64{DimensionSelfCare: 0},
			wantOverall:    0,
			wantConcerns:   []Dimension{DimensionSelfCare},
			wantRecsCount:  2,
			wantCompletion: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sc.Generate(sess, tt.responses, now)
			assert.Equal(t, tt.wantScores, r.DimensionScores)
			assert.Equal(t, tt.wantOverall, r.OverallScore)
			assert.Equal(t, tt.wantConcerns, r.Concerns)
			assert.Len(t, r.Recommendations, tt.wantRecsCount)
			assert.Equal(t, tt.wantCompletion, r.CompletionPercentage)
			assert.Equal(t, "s1", r.SessionID)
			assert.Equal(t, "c1", r.ChildID)
			assert.Equal(t, now, r.GeneratedAt)
			for _, score := range r.DimensionScores {
				assert.True(t, score >= 0 && score <= 100)
			}
		})
	}
}

func TestScorer_Generate_IsIdempotent(t *testing.T) {
	now := time.Now()
	rs := responses(
		DimensionLanguage, AnswerYes,
		DimensionSocialEmotional, AnswerNo,
		DimensionMaternalHealth, AnswerSometimes,
	)
	sc := NewScorer()
	assert.Equal(t, sc.Generate(Session{}, rs, now), sc.Generate(Session{}, rs, now))
}

func TestScorer_Recommendations(t *testing.T) {
	sc := NewScorer()
	rs := responses(
		DimensionLanguage, AnswerYes, // 100: reinforcement
		DimensionGrossMotor, AnswerSometimes, // 50: keep going
		DimensionCognitive, AnswerNo, // 0: stimulation
	)
	r := sc.Generate(Session{}, rs, time.Now())

	// canonical order: motor_grosso, linguagem, cognitivo
	if assert.Len(t, r.Recommendations, 4) {
		assert.Contains(t, r.Recommendations[0], "Motor Grosso: continue estimulando")
		assert.Contains(t, r.Recommendations[1], "Linguagem: excelente")
		assert.Contains(t, r.Recommendations[2], "Cognitivo: reserve")
		assert.Contains(t, r.Recommendations[3], "profissional")
	}
	assert.Equal(t, []Dimension{DimensionCognitive}, r.Concerns)
}

func TestScorer_Concerns_CanonicalOrder(t *testing.T) {
	rs := responses(
		DimensionMaternalHealth, AnswerNo,
		Dimension("zzz"), AnswerNo,
		Dimension("aaa"), AnswerNo,
		DimensionGrossMotor, AnswerNo,
		DimensionLanguage, AnswerSometimes, // 50 is not a concern
	)
	r := NewScorer().Generate(Session{}, rs, time.Now())
	assert.Equal(t, []Dimension{DimensionGrossMotor, DimensionMaternalHealth, "aaa", "zzz"}, r.Concerns)
}

func TestCompletionPercentage(t *testing.T) {
	tests := []struct {
		answered, total int
		want            float64
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 10, 0},
		{5, 10, 50},
		{1, 3, 100.0 / 3},
		{10, 10, 100},
		{12, 10, 100},
		{-1, 10, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, CompletionPercentage(tt.answered, tt.total), 1e-9)
	}
}

func TestAnswer_Score(t *testing.T) {
	for a, want := range map[Answer]float64{AnswerYes: 100, AnswerSometimes: 50, AnswerNo: 0} {
		got, ok := a.Score()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	for _, a := range []Answer{0, 4, -1} {
		_, ok := a.Score()
		assert.False(t, ok)
		assert.False(t, a.IsValid())
	}
}
