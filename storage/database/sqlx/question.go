package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

const questionColumns = `id, code, dimension, text, min_months, max_months, order_index, is_active,
	feedback_yes, feedback_unknown, feedback_no, tips_yes, tips_unknown, tips_no, created_at, updated_at`

type questionRow struct {
	ID              string         `db:"id"`
	Code            null.String    `db:"code"`
	Dimension       string         `db:"dimension"`
	Text            string         `db:"text"`
	MinMonths       int            `db:"min_months"`
	MaxMonths       int            `db:"max_months"`
	OrderIndex      int            `db:"order_index"`
	IsActive        bool           `db:"is_active"`
	FeedbackYes     string         `db:"feedback_yes"`
	FeedbackUnknown string         `db:"feedback_unknown"`
	FeedbackNo      string         `db:"feedback_no"`
	TipsYes         pq.StringArray `db:"tips_yes"`
	TipsUnknown     pq.StringArray `db:"tips_unknown"`
	TipsNo          pq.StringArray `db:"tips_no"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func nonNilStrings(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return s
}

func toQuestionRow(q journey.Question) questionRow {
	return questionRow{
		ID:              q.ID,
		Code:            null.NewString(q.Code, q.Code != ""),
		Dimension:       string(q.Dimension),
		Text:            q.Text,
		MinMonths:       q.MinMonths,
		MaxMonths:       q.MaxMonths,
		OrderIndex:      q.OrderIndex,
		IsActive:        q.IsActive,
		FeedbackYes:     q.FeedbackYes,
		FeedbackUnknown: q.FeedbackUnknown,
		FeedbackNo:      q.FeedbackNo,
		TipsYes:         nonNilStrings(q.TipsYes),
		TipsUnknown:     nonNilStrings(q.TipsUnknown),
		TipsNo:          nonNilStrings(q.TipsNo),
		CreatedAt:       q.CreatedAt.UTC(),
		UpdatedAt:       q.UpdatedAt.UTC(),
	}
}

func (r questionRow) question() journey.Question {
	return journey.Question{
		ID:              r.ID,
		Code:            r.Code.String,
		Dimension:       journey.Dimension(r.Dimension),
		Text:            r.Text,
		MinMonths:       r.MinMonths,
		MaxMonths:       r.MaxMonths,
		OrderIndex:      r.OrderIndex,
		IsActive:        r.IsActive,
		FeedbackYes:     r.FeedbackYes,
		FeedbackUnknown: r.FeedbackUnknown,
		FeedbackNo:      r.FeedbackNo,
		TipsYes:         []string(r.TipsYes),
		TipsUnknown:     []string(r.TipsUnknown),
		TipsNo:          []string(r.TipsNo),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type questionRepository struct {
	db *sqlx.DB
}

var _ journey.QuestionRepository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *sqlx.DB) *questionRepository {
	return &questionRepository{db: db}
}

func (repo *questionRepository) CreateQuestion(ctx context.Context, q journey.Question) (journey.Question, error) {
	row := toQuestionRow(q)
	query := `INSERT INTO question (code, dimension, text, min_months, max_months, order_index, is_active,
			feedback_yes, feedback_unknown, feedback_no, tips_yes, tips_unknown, tips_no, created_at, updated_at)
		VALUES (:code, :dimension, :text, :min_months, :max_months, :order_index, :is_active,
			:feedback_yes, :feedback_unknown, :feedback_no, :tips_yes, :tips_unknown, :tips_no, :created_at, :updated_at)
		RETURNING ` + questionColumns
	if err := namedGet(ctx, repo.db, &row, query, row); err != nil {
		if isUniqueViolation(err, "question_code_key") {
			return journey.Question{}, journey.ErrDuplicateCode
		}
		return journey.Question{}, errors.Wrap(err, "inserting question")
	}
	return row.question(), nil
}

func (repo *questionRepository) GetQuestion(ctx context.Context, id string) (journey.Question, error) {
	if !isUUID(id) {
		return journey.Question{}, journey.ErrQuestionNotFound
	}
	var row questionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+questionColumns+` FROM question WHERE id = $1`, id); err != nil {
		return journey.Question{}, trapNoRowsErr(err, journey.ErrQuestionNotFound, "getting question")
	}
	return row.question(), nil
}

func (repo *questionRepository) QueryQuestions(ctx context.Context, filter journey.QuestionFilter) ([]journey.Question, error) {
	qb := psql.Select(questionColumns).From("question").OrderBy("min_months", "max_months", "order_index", "id")
	if filter.Dimension != "" {
		qb = qb.Where(sq.Eq{"dimension": filter.Dimension})
	}
	if filter.Active != nil {
		qb = qb.Where(sq.Eq{"is_active": *filter.Active})
	}
	if filter.AgeMonths != nil {
		qb = qb.Where(sq.And{sq.LtOrEq{"min_months": *filter.AgeMonths}, sq.GtOrEq{"max_months": *filter.AgeMonths}})
	}
	if filter.IDs != nil {
		qb = qb.Where("id = ANY(?)", pq.Array(validIDs(filter.IDs)))
	}
	if filter.Codes != nil {
		qb = qb.Where("code = ANY(?)", pq.Array(filter.Codes))
	}

	var rows []questionRow
	if err := selectAll(ctx, repo.db, &rows, qb, "querying questions"); err != nil {
		return nil, err
	}
	questions := make([]journey.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.question())
	}
	return questions, nil
}

func (repo *questionRepository) UpdateQuestion(ctx context.Context, q journey.Question) (journey.Question, error) {
	if !isUUID(q.ID) {
		return journey.Question{}, journey.ErrQuestionNotFound
	}
	row := toQuestionRow(q)
	query := `UPDATE question SET
			code = :code, dimension = :dimension, text = :text, min_months = :min_months, max_months = :max_months,
			order_index = :order_index, is_active = :is_active, feedback_yes = :feedback_yes,
			feedback_unknown = :feedback_unknown, feedback_no = :feedback_no, tips_yes = :tips_yes,
			tips_unknown = :tips_unknown, tips_no = :tips_no, updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + questionColumns
	if err := namedGet(ctx, repo.db, &row, query, row); err != nil {
		if isUniqueViolation(err, "question_code_key") {
			return journey.Question{}, journey.ErrDuplicateCode
		}
		return journey.Question{}, trapNoRowsErr(err, journey.ErrQuestionNotFound, "updating question")
	}
	return row.question(), nil
}

func (repo *questionRepository) DeleteQuestion(ctx context.Context, id string) error {
	err := deleteByID(ctx, repo.db, "question", id, journey.ErrQuestionNotFound, "deleting question")
	if isForeignKeyViolation(err) {
		return journey.ErrQuestionInUse
	}
	return err
}
