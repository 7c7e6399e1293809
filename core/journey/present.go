package journey

const (
	defaultFeedbackYes       = "Que ótimo! {childName} está se desenvolvendo muito bem nesta área."
	defaultFeedbackSometimes = "{childName} está no caminho certo. Continue estimulando no dia a dia!"
	defaultFeedbackNo        = "Não se preocupe, cada criança tem seu ritmo. Vamos estimular {childName} juntos!"
	defaultActivity          = "Brinque com {childName} todos os dias e observe como {ele/ela} reage a novos desafios."
)

var optionTemplates = map[Answer]string{
	AnswerYes:       "Sim, {childName} já faz isso",
	AnswerSometimes: "Às vezes, {ele/ela} está aprendendo",
	AnswerNo:        "Não, {childName} ainda não faz",
}

type Option struct {
	Value Answer `json:"value"`
	Text  string `json:"text"`
}

type Feedback struct {
	Yes       string `json:"yes"`
	Sometimes string `json:"sometimes"`
	No        string `json:"no"`
}

// PresentedQuestion is a Question ready to be shown for a specific child.
type PresentedQuestion struct {
	ID             string    `json:"id"`
	Dimension      Dimension `json:"dimension"`
	DimensionLabel string    `json:"dimension_label"`
	Text           string    `json:"text"`
	MinMonths      int       `json:"min_months"`
	MaxMonths      int       `json:"max_months"`
	OrderIndex     int       `json:"order_index"`
	Options        []Option  `json:"options"`
	Feedback       Feedback  `json:"feedback"`
	Activity       string    `json:"activity"`
}

// FeedbackTemplate returns the raw feedback for the answer, falling back to a generic text.
func (q Question) FeedbackTemplate(a Answer) string {
	switch a {
	case AnswerYes:
		return orDefault(q.FeedbackYes, defaultFeedbackYes)
	case AnswerSometimes:
		return orDefault(q.FeedbackUnknown, defaultFeedbackSometimes)
	case AnswerNo:
		return orDefault(q.FeedbackNo, defaultFeedbackNo)
	}
	return ""
}

// ActivityTemplate returns the first available tip across the yes, sometimes & no tip lists.
func (q Question) ActivityTemplate() string {
	for _, tips := range [][]string{q.TipsYes, q.TipsUnknown, q.TipsNo} {
		for _, tip := range tips {
			if tip != "" {
				return tip
			}
		}
	}
	return defaultActivity
}

// Present enriches q with the options, feedback & activity rendered for subj.
func Present(q Question, subj Subject) PresentedQuestion {
	options := make([]Option, 0, len(Answers))
	for _, a := range Answers {
		options = append(options, Option{Value: a, Text: Render(optionTemplates[a], subj)})
	}
	return PresentedQuestion{
		ID:             q.ID,
		Dimension:      q.Dimension,
		DimensionLabel: q.Dimension.Label(),
		Text:           Render(q.Text, subj),
		MinMonths:      q.MinMonths,
		MaxMonths:      q.MaxMonths,
		OrderIndex:     q.OrderIndex,
		Options:        options,
		Feedback: Feedback{
			Yes:       Render(q.FeedbackTemplate(AnswerYes), subj),
			Sometimes: Render(q.FeedbackTemplate(AnswerSometimes), subj),
			No:        Render(q.FeedbackTemplate(AnswerNo), subj),
		},
		Activity: Render(q.ActivityTemplate(), subj),
	}
}

func PresentAll(questions []Question, subj Subject) []PresentedQuestion {
	presented := make([]PresentedQuestion, 0, len(questions))
	for _, q := range questions {
		presented = append(presented, Present(q, subj))
	}
	return presented
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
