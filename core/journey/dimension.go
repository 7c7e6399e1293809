package journey

import "sort"

// Dimension is a developmental category scored independently.
type Dimension string

const (
	DimensionGrossMotor      Dimension = "motor_grosso"
	DimensionFineMotor       Dimension = "motor_fino"
	DimensionLanguage        Dimension = "linguagem"
	DimensionCognitive       Dimension = "cognitivo"
	DimensionSocialEmotional Dimension = "social_emocional"
	DimensionSelfCare        Dimension = "autocuidado"
	DimensionMaternalHealth  Dimension = "saude_materna"
)

type DimensionInfo struct {
	Code  Dimension `json:"code"`
	Label string    `json:"label"`
}

// Dimensions is the canonical (display) order of the dimensions.
var Dimensions = []DimensionInfo{
	{Code: DimensionGrossMotor, Label: "Motor Grosso"},
	{Code: DimensionFineMotor, Label: "Motor Fino"},
	{Code: DimensionLanguage, Label: "Linguagem"},
	{Code: DimensionCognitive, Label: "Cognitivo"},
	{Code: DimensionSocialEmotional, Label: "Social e Emocional"},
	{Code: DimensionSelfCare, Label: "Autocuidado"},
	{Code: DimensionMaternalHealth, Label: "Saúde Materna"},
}

func (d Dimension) index() int {
	for i, info := range Dimensions {
		if info.Code == d {
			return i
		}
	}
	return -1
}

func (d Dimension) IsValid() bool {
	return d.index() >= 0
}

func (d Dimension) Label() string {
	if i := d.index(); i >= 0 {
		return Dimensions[i].Label
	}
	return string(d)
}

// sortDimensions sorts dims in canonical order; unknown dimensions come last, alphabetically.
func sortDimensions(dims []Dimension) {
	sort.SliceStable(dims, func(i, j int) bool {
		ii, ij := dims[i].index(), dims[j].index()
		switch {
		case ii >= 0 && ij >= 0:
			return ii < ij
		case ii >= 0:
			return true
		case ij >= 0:
			return false
		default:
			return dims[i] < dims[j]
		}
	})
}

// Answer is the tri-state answer code given to a question.
type Answer int

const (
	AnswerYes       Answer = 1
	AnswerSometimes Answer = 2
	AnswerNo        Answer = 3
)

// Answers lists the valid answer codes in display order.
var Answers = []Answer{AnswerYes, AnswerSometimes, AnswerNo}

func (a Answer) IsValid() bool {
	return a >= AnswerYes && a <= AnswerNo
}

// Score maps the answer to a percentage: yes 100, sometimes 50, no 0.
func (a Answer) Score() (float64, bool) {
	switch a {
	case AnswerYes:
		return 100, true
	case AnswerSometimes:
		return 50, true
	case AnswerNo:
		return 0, true
	}
	return 0, false
}

func (a Answer) Label() string {
	switch a {
	case AnswerYes:
		return "Sim"
	case AnswerSometimes:
		return "Às vezes"
	case AnswerNo:
		return "Não"
	}
	return ""
}
