package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhsobrinho/educareapp-sub009/core/child"
)

func TestRender(t *testing.T) {
	tmpl := "{Ele/Ela} gosta quando {o/a} chamam. {childName} aponta o brinquedo {dele/dela}? {ele/ela} sorri."
	tests := []struct {
		name string
		subj Subject
		want string
	}{
		{
			name: "male",
			subj: Subject{Name: "Pedro", Gender: child.GenderMale},
			want: "Ele gosta quando o chamam. Pedro aponta o brinquedo dele? ele sorri.",
		},
		{
			name: "female",
			subj: Subject{Name: "Ana", Gender: child.GenderFemale},
			want: "Ela gosta quando a chamam. Ana aponta o brinquedo dela? ela sorri.",
		},
		{
			name: "unknown gender & name",
			subj: Subject{},
			want: "Ele(a) gosta quando o(a) chamam. a criança aponta o brinquedo dele(a)? ele(a) sorri.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tmpl, tt.subj))
		})
	}
}

func TestRender_KeepsUnknownPlaceholders(t *testing.T) {
	assert.Equal(t, "Oi {nome}, Ana", Render("Oi {nome}, {childName}", Subject{Name: "Ana"}))
	assert.Equal(t, "sem marcadores", Render("sem marcadores", Subject{Name: "Ana"}))
}

func TestPresent(t *testing.T) {
	subj := SubjectFor(child.Child{FirstName: "Ana", Gender: child.GenderFemale})

	t.Run("with question texts", func(t *testing.T) {
		q := Question{
			ID:          "q1",
			Dimension:   DimensionLanguage,
			Text:        "{childName} fala palavras soltas?",
			FeedbackYes: "Muito bem, {childName}!",
			FeedbackNo:  "Converse bastante com {ela/ele}.",
			TipsUnknown: []string{"Leia histórias para {childName}."},
			TipsNo:      []string{"Cante com {o/a} bebê."},
		}
		pq := Present(q, subj)

		assert.Equal(t, "q1", pq.ID)
		assert.Equal(t, "Linguagem", pq.DimensionLabel)
		assert.Equal(t, "Ana fala palavras soltas?", pq.Text)
		assert.Equal(t, []Option{
			{Value: AnswerYes, Text: "Sim, Ana já faz isso"},
			{Value: AnswerSometimes, Text: "Às vezes, ela está aprendendo"},
			{Value: AnswerNo, Text: "Não, Ana ainda não faz"},
		}, pq.Options)
		assert.Equal(t, "Muito bem, Ana!", pq.Feedback.Yes)
		assert.Equal(t, "Ana está no caminho certo. Continue estimulando no dia a dia!", pq.Feedback.Sometimes)
		assert.Equal(t, "Converse bastante com {ela/ele}.", pq.Feedback.No)
		assert.Equal(t, "Leia histórias para Ana.", pq.Activity)
	})

	t.Run("defaults", func(t *testing.T) {
		pq := Present(Question{ID: "q2", Dimension: DimensionFineMotor}, subj)
		assert.Equal(t, "Que ótimo! Ana está se desenvolvendo muito bem nesta área.", pq.Feedback.Yes)
		assert.Equal(t, "Não se preocupe, cada criança tem seu ritmo. Vamos estimular Ana juntos!", pq.Feedback.No)
		assert.Equal(t, "Brinque com Ana todos os dias e observe como ela reage a novos desafios.", pq.Activity)
	})
}
