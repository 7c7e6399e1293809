package journey

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultLowThreshold  = 50
	DefaultHighThreshold = 80
)

// Report is the score report derived from the responses of a session.
type Report struct {
	SessionID            string                `json:"session_id"`
	ChildID              string                `json:"child_id"`
	UserID               string                `json:"user_id"`
	DimensionScores      map[Dimension]float64 `json:"dimension_scores"`
	OverallScore         float64               `json:"overall_score"`
	Concerns             []Dimension           `json:"concerns"`
	Recommendations      []string              `json:"recommendations"`
	CompletionPercentage float64               `json:"completion_percentage"`
	GeneratedAt          time.Time             `json:"generated_at"`
}

// ScoredDimensions returns the dimensions of the report in canonical order.
func (r Report) ScoredDimensions() []Dimension {
	dims := make([]Dimension, 0, len(r.DimensionScores))
	for d := range r.DimensionScores {
		dims = append(dims, d)
	}
	sortDimensions(dims)
	return dims
}

// Scorer turns responses into reports.
type Scorer struct {
	// Dimensions scoring strictly below LowThreshold are concerns.
	LowThreshold float64
	// Dimensions scoring at or above HighThreshold get a positive reinforcement.
	HighThreshold float64
}

func NewScorer() Scorer {
	return Scorer{LowThreshold: DefaultLowThreshold, HighThreshold: DefaultHighThreshold}
}

// DimensionScores averages the answer scores per dimension.
// Dimensions without a valid response are absent from the result.
func (sc Scorer) DimensionScores(responses []Response) map[Dimension]float64 {
	sums := make(map[Dimension]float64)
	counts := make(map[Dimension]int)
	for _, r := range responses {
		score, ok := r.Answer.Score()
		if !ok {
			continue
		}
		sums[r.Dimension] += score
		counts[r.Dimension]++
	}
	scores := make(map[Dimension]float64, len(sums))
	for d, sum := range sums {
		scores[d] = sum / float64(counts[d])
	}
	return scores
}

// OverallScore is the unweighted mean of the dimension scores, 0 when there are none.
func (sc Scorer) OverallScore(scores map[Dimension]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// Generate computes the report of the session from its responses.
func (sc Scorer) Generate(s Session, responses []Response, now time.Time) Report {
	r := Report{
		SessionID:            s.ID,
		ChildID:              s.ChildID,
		UserID:               s.UserID,
		DimensionScores:      sc.DimensionScores(responses),
		Concerns:             []Dimension{},
		Recommendations:      []string{},
		CompletionPercentage: s.CompletionPercentage(),
		GeneratedAt:          now.UTC(),
	}
	r.OverallScore = sc.OverallScore(r.DimensionScores)

	for _, d := range r.ScoredDimensions() {
		score := r.DimensionScores[d]
		switch {
		case score < sc.LowThreshold:
			r.Concerns = append(r.Concerns, d)
			r.Recommendations = append(r.Recommendations, fmt.Sprintf(
				"%s: reserve momentos diários de brincadeiras que estimulem esta área.", d.Label(),
			))
		case score >= sc.HighThreshold:
			r.Recommendations = append(r.Recommendations, fmt.Sprintf(
				"%s: excelente desenvolvimento! Continue oferecendo experiências variadas.", d.Label(),
			))
		default:
			r.Recommendations = append(r.Recommendations, fmt.Sprintf(
				"%s: continue estimulando, o desenvolvimento está no caminho certo.", d.Label(),
			))
		}
	}
	if len(r.Concerns) > 0 {
		r.Recommendations = append(r.Recommendations,
			"Compartilhe este relatório com um profissional de saúde ou educação para uma avaliação mais completa.",
		)
	}
	return r
}

// CompletionPercentage is answered/total*100, clamped to [0, 100]. It is 0 when total is not positive.
func CompletionPercentage(answered, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Max(0, math.Min(100, float64(answered)/float64(total)*100))
}
