// Package boiledrepos holds the repositories built on sqlboiler's raw query binding.
package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

const reportColumns = `session_id, child_id, user_id, dimension_scores, overall_score, concerns, recommendations,
	completion_percentage, generated_at`

// reportRow maps a journey_report row.
type reportRow struct {
	SessionID            string            `boil:"session_id"`
	ChildID              string            `boil:"child_id"`
	UserID               string            `boil:"user_id"`
	DimensionScores      types.JSON        `boil:"dimension_scores"`
	OverallScore         float64           `boil:"overall_score"`
	Concerns             types.StringArray `boil:"concerns"`
	Recommendations      types.StringArray `boil:"recommendations"`
	CompletionPercentage float64           `boil:"completion_percentage"`
	GeneratedAt          time.Time         `boil:"generated_at"`
}

type reportRepository struct {
	exec core.DBExecutor
}

var _ journey.ReportRepository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(exec core.DBExecutor) *reportRepository {
	return &reportRepository{exec: exec}
}

func (repo reportRepository) boil(r journey.Report) (reportRow, error) {
	row := reportRow{
		SessionID:            r.SessionID,
		ChildID:              r.ChildID,
		UserID:               r.UserID,
		OverallScore:         r.OverallScore,
		Concerns:             make(types.StringArray, 0, len(r.Concerns)),
		Recommendations:      types.StringArray(r.Recommendations),
		CompletionPercentage: r.CompletionPercentage,
		GeneratedAt:          r.GeneratedAt.UTC(),
	}
	for _, d := range r.Concerns {
		row.Concerns = append(row.Concerns, string(d))
	}
	if row.Recommendations == nil {
		row.Recommendations = types.StringArray{}
	}
	scores := r.DimensionScores
	if scores == nil {
		scores = map[journey.Dimension]float64{}
	}
	if err := row.DimensionScores.Marshal(scores); err != nil {
		return reportRow{}, errors.Wrap(err, "encoding dimension scores")
	}
	return row, nil
}

func (repo reportRepository) unboil(row reportRow) (journey.Report, error) {
	r := journey.Report{
		SessionID:            row.SessionID,
		ChildID:              row.ChildID,
		UserID:               row.UserID,
		DimensionScores:      map[journey.Dimension]float64{},
		OverallScore:         row.OverallScore,
		Concerns:             make([]journey.Dimension, 0, len(row.Concerns)),
		Recommendations:      append([]string{}, row.Recommendations...),
		CompletionPercentage: row.CompletionPercentage,
		GeneratedAt:          row.GeneratedAt.UTC(),
	}
	for _, d := range row.Concerns {
		r.Concerns = append(r.Concerns, journey.Dimension(d))
	}
	if len(row.DimensionScores) > 0 {
		if err := row.DimensionScores.Unmarshal(&r.DimensionScores); err != nil {
			return journey.Report{}, errors.Wrap(err, "decoding dimension scores")
		}
	}
	return r, nil
}

// SaveReport upserts the report; a session has at most one report.
func (repo reportRepository) SaveReport(ctx context.Context, r journey.Report) error {
	row, err := repo.boil(r)
	if err != nil {
		return err
	}
	q := `INSERT INTO journey_report (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET
			dimension_scores = EXCLUDED.dimension_scores,
			overall_score = EXCLUDED.overall_score,
			concerns = EXCLUDED.concerns,
			recommendations = EXCLUDED.recommendations,
			completion_percentage = EXCLUDED.completion_percentage,
			generated_at = EXCLUDED.generated_at`
	_, err = repo.exec.ExecContext(ctx, q,
		row.SessionID, row.ChildID, row.UserID, row.DimensionScores, row.OverallScore,
		row.Concerns, row.Recommendations, row.CompletionPercentage, row.GeneratedAt)
	return errors.Wrap(err, "saving report")
}

func (repo reportRepository) GetReport(ctx context.Context, sessionID string) (journey.Report, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return journey.Report{}, journey.ErrReportNotFound
	}
	var row reportRow
	err := queries.Raw(`SELECT `+reportColumns+` FROM journey_report WHERE session_id = $1`, sessionID).
		Bind(ctx, repo.exec, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return journey.Report{}, journey.ErrReportNotFound
		}
		return journey.Report{}, errors.Wrap(err, "finding report")
	}
	return repo.unboil(row)
}

func (repo reportRepository) QueryReports(ctx context.Context, childID string) ([]journey.Report, error) {
	if _, err := uuid.Parse(childID); err != nil {
		return []journey.Report{}, nil
	}
	var rows []reportRow
	err := queries.Raw(`SELECT `+reportColumns+` FROM journey_report WHERE child_id = $1 ORDER BY generated_at DESC`, childID).
		Bind(ctx, repo.exec, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}
	reports := make([]journey.Report, 0, len(rows))
	for _, row := range rows {
		r, err := repo.unboil(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
