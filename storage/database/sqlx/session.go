package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

const (
	sessionColumns = `id, user_id, child_id, total_questions, answered_questions, status, session_data,
	created_at, updated_at, completed_at`
	responseColumns = `id, session_id, question_id, dimension, answer, answer_text, created_at`

	sessionOpenUniq     = "journey_session_open_uniq"
	responseUniq        = "journey_response_session_id_question_id_key"
	responseSessionFKey = "journey_response_session_id_fkey"
)

type sessionRow struct {
	ID                string     `db:"id"`
	UserID            string     `db:"user_id"`
	ChildID           string     `db:"child_id"`
	TotalQuestions    int        `db:"total_questions"`
	AnsweredQuestions int        `db:"answered_questions"`
	Status            string     `db:"status"`
	Data              types.JSON `db:"session_data"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	CompletedAt       null.Time  `db:"completed_at"`
}

func toSessionRow(s journey.Session) (sessionRow, error) {
	row := sessionRow{
		ID:                s.ID,
		UserID:            s.UserID,
		ChildID:           s.ChildID,
		TotalQuestions:    s.TotalQuestions,
		AnsweredQuestions: s.AnsweredQuestions,
		Status:            string(s.Status),
		CreatedAt:         s.CreatedAt.UTC(),
		UpdatedAt:         s.UpdatedAt.UTC(),
		CompletedAt:       null.TimeFromPtr(s.CompletedAt),
	}
	if err := row.Data.Marshal(s.Data); err != nil {
		return sessionRow{}, errors.Wrap(err, "encoding session data")
	}
	return row, nil
}

func (r sessionRow) session() (journey.Session, error) {
	s := journey.Session{
		ID:                r.ID,
		UserID:            r.UserID,
		ChildID:           r.ChildID,
		TotalQuestions:    r.TotalQuestions,
		AnsweredQuestions: r.AnsweredQuestions,
		Status:            journey.SessionStatus(r.Status),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
		CompletedAt:       r.CompletedAt.Ptr(),
	}
	if len(r.Data) > 0 {
		if err := r.Data.Unmarshal(&s.Data); err != nil {
			return journey.Session{}, errors.Wrap(err, "decoding session data")
		}
	}
	return s, nil
}

type responseRow struct {
	ID         string    `db:"id"`
	SessionID  string    `db:"session_id"`
	QuestionID string    `db:"question_id"`
	Dimension  string    `db:"dimension"`
	Answer     int       `db:"answer"`
	AnswerText string    `db:"answer_text"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r responseRow) response() journey.Response {
	return journey.Response{
		ID:         r.ID,
		SessionID:  r.SessionID,
		QuestionID: r.QuestionID,
		Dimension:  journey.Dimension(r.Dimension),
		Answer:     journey.Answer(r.Answer),
		AnswerText: r.AnswerText,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ journey.SessionRepository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) getOne(ctx context.Context, msg, query string, args ...interface{}) (journey.Session, error) {
	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return journey.Session{}, trapNoRowsErr(err, journey.ErrSessionNotFound, msg)
	}
	return row.session()
}

func (repo *sessionRepository) GetOpenSession(ctx context.Context, userID, childID string) (journey.Session, error) {
	if !isUUID(userID) || !isUUID(childID) {
		return journey.Session{}, journey.ErrSessionNotFound
	}
	q := `SELECT ` + sessionColumns + ` FROM journey_session
		WHERE user_id = $1 AND child_id = $2 AND status <> $3
		ORDER BY created_at DESC LIMIT 1`
	return repo.getOne(ctx, "getting open session", q, userID, childID, string(journey.SessionCompleted))
}

func (repo *sessionRepository) CreateSession(ctx context.Context, s journey.Session) (journey.Session, error) {
	row, err := toSessionRow(s)
	if err != nil {
		return journey.Session{}, err
	}
	q := `INSERT INTO journey_session (user_id, child_id, total_questions, answered_questions, status, session_data,
			created_at, updated_at, completed_at)
		VALUES (:user_id, :child_id, :total_questions, :answered_questions, :status, :session_data,
			:created_at, :updated_at, :completed_at)
		RETURNING ` + sessionColumns
	if err = namedGet(ctx, repo.db, &row, q, row); err != nil {
		if isUniqueViolation(err, sessionOpenUniq) {
			return journey.Session{}, journey.ErrOpenSessionExists
		}
		return journey.Session{}, errors.Wrap(err, "inserting session")
	}
	return row.session()
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (journey.Session, error) {
	if !isUUID(id) {
		return journey.Session{}, journey.ErrSessionNotFound
	}
	q := `SELECT ` + sessionColumns + ` FROM journey_session WHERE id = $1`
	return repo.getOne(ctx, "getting session", q, id)
}

// closedOrMissing tells apart the sessions which are completed from those which do not exist.
func (repo *sessionRepository) closedOrMissing(ctx context.Context, id, msg string) error {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM journey_session WHERE id = $1)`, id); err != nil {
		return errors.Wrap(err, msg)
	}
	if exists {
		return journey.ErrSessionClosed
	}
	return journey.ErrSessionNotFound
}

// UpdateSession only writes sessions which are not completed yet.
func (repo *sessionRepository) UpdateSession(ctx context.Context, s journey.Session) (journey.Session, error) {
	if !isUUID(s.ID) {
		return journey.Session{}, journey.ErrSessionNotFound
	}
	row, err := toSessionRow(s)
	if err != nil {
		return journey.Session{}, err
	}
	q := `UPDATE journey_session SET
			total_questions = :total_questions, answered_questions = :answered_questions, status = :status,
			session_data = :session_data, updated_at = :updated_at, completed_at = :completed_at
		WHERE id = :id AND status <> 'completed'
		RETURNING ` + sessionColumns
	if err = namedGet(ctx, repo.db, &row, q, row); err != nil {
		switch {
		case isUniqueViolation(err, sessionOpenUniq):
			return journey.Session{}, journey.ErrOpenSessionExists
		case errors.Is(err, sql.ErrNoRows):
			return journey.Session{}, repo.closedOrMissing(ctx, s.ID, "updating session")
		}
		return journey.Session{}, errors.Wrap(err, "updating session")
	}
	return row.session()
}

func (repo *sessionRepository) QuerySessions(ctx context.Context, filter journey.SessionFilter) ([]journey.Session, error) {
	if (filter.UserID != "" && !isUUID(filter.UserID)) || (filter.ChildID != "" && !isUUID(filter.ChildID)) {
		return []journey.Session{}, nil
	}
	qb := psql.Select(sessionColumns).From("journey_session").OrderBy("created_at DESC")
	if filter.UserID != "" {
		qb = qb.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.ChildID != "" {
		qb = qb.Where(sq.Eq{"child_id": filter.ChildID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		qb = qb.Where(sq.Eq{"status": statuses})
	}

	var rows []sessionRow
	if err := selectAll(ctx, repo.db, &rows, qb, "querying sessions"); err != nil {
		return nil, err
	}
	sessions := make([]journey.Session, 0, len(rows))
	for _, r := range rows {
		s, err := r.session()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// CreateResponse only inserts into sessions which are not completed yet.
func (repo *sessionRepository) CreateResponse(ctx context.Context, r journey.Response) (journey.Response, error) {
	if !isUUID(r.SessionID) {
		return journey.Response{}, journey.ErrSessionNotFound
	}
	if !isUUID(r.QuestionID) {
		return journey.Response{}, journey.ErrQuestionNotFound
	}
	q := `INSERT INTO journey_response (session_id, question_id, dimension, answer, answer_text, created_at)
		SELECT id, $2::uuid, $3::text, $4::smallint, $5::text, $6::timestamptz
		FROM journey_session WHERE id = $1 AND status <> $7
		RETURNING ` + responseColumns
	var row responseRow
	err := repo.db.GetContext(ctx, &row, q,
		r.SessionID, r.QuestionID, string(r.Dimension), int(r.Answer), r.AnswerText, r.CreatedAt.UTC(),
		string(journey.SessionCompleted))
	if err != nil {
		switch code, constraint := pgError(err); {
		case errors.Is(err, sql.ErrNoRows):
			return journey.Response{}, repo.closedOrMissing(ctx, r.SessionID, "inserting response")
		case code == pgUniqueViolation && constraint == responseUniq:
			return journey.Response{}, journey.ErrAlreadyAnswered
		case code == pgForeignKeyViolation && constraint == responseSessionFKey:
			return journey.Response{}, journey.ErrSessionNotFound
		case code == pgForeignKeyViolation:
			return journey.Response{}, journey.ErrQuestionNotFound
		}
		return journey.Response{}, errors.Wrap(err, "inserting response")
	}
	return row.response(), nil
}

func (repo *sessionRepository) QueryResponses(ctx context.Context, sessionID string) ([]journey.Response, error) {
	if !isUUID(sessionID) {
		return []journey.Response{}, nil
	}
	var rows []responseRow
	q := `SELECT ` + responseColumns + ` FROM journey_response WHERE session_id = $1 ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q, sessionID); err != nil {
		return nil, errors.Wrap(err, "querying responses")
	}
	responses := make([]journey.Response, 0, len(rows))
	for _, r := range rows {
		responses = append(responses, r.response())
	}
	return responses, nil
}
