package journey

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jhsobrinho/educareapp-sub009/core"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

var (
	ErrSessionNotFound = core.NewNotFoundError("session not found")
	ErrReportNotFound  = core.NewNotFoundError("report not found")
	ErrNoQuestions     = core.NewNotFoundError("no questions available for this age")
	ErrSessionClosed   = core.NewConflictError("session is completed")
	ErrAlreadyAnswered = core.NewConflictError("question already answered in this session")
	// ErrOpenSessionExists is returned by SessionRepository.CreateSession when the
	// (user, child) pair already has a session which is not completed.
	ErrOpenSessionExists = core.NewConflictError("an open session already exists")
)

// SessionData is the free-form blob stored with a session.
type SessionData struct {
	AgeMonths   int      `json:"age_months"`
	QuestionIDs []string `json:"question_ids"`
	Report      *Report  `json:"report,omitempty"`
}

// Session is one questionnaire pass of a user for a child.
type Session struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	ChildID           string        `json:"child_id"`
	TotalQuestions    int           `json:"total_questions"`
	AnsweredQuestions int           `json:"answered_questions"`
	Status            SessionStatus `json:"status"`
	Data              SessionData   `json:"session_data"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	CompletedAt       *time.Time    `json:"completed_at"`
}

// IsOpen reports whether the session can still receive answers.
func (s Session) IsOpen() bool {
	return s.Status != SessionCompleted
}

func (s Session) HasQuestion(id string) bool {
	return core.StringInSlice(id, s.Data.QuestionIDs)
}

func (s Session) CompletionPercentage() float64 {
	return CompletionPercentage(s.AnsweredQuestions, s.TotalQuestions)
}

// Response is an answer given to a question during a session. Responses are never updated.
type Response struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id"`
	Dimension  Dimension `json:"dimension"`
	Answer     Answer    `json:"answer"`
	AnswerText string    `json:"answer_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewAnswer contains the answer given to a question of a session.
type NewAnswer struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     int    `json:"answer" validate:"required,answer"`
}

func (na *NewAnswer) Validate(validate *validator.Validate) error {
	na.QuestionID = core.CleanString(na.QuestionID)
	return validate.Struct(na)
}

type SessionFilter struct {
	UserID   string
	ChildID  string
	Statuses []SessionStatus
}

type SessionRepository interface {
	// GetOpenSession returns the most recent session of the pair which is not completed.
	GetOpenSession(ctx context.Context, userID, childID string) (Session, error)
	// CreateSession fails with ErrOpenSessionExists when the pair already has an open session.
	CreateSession(ctx context.Context, s Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	// UpdateSession fails with ErrSessionClosed when the stored session is completed,
	// and with ErrOpenSessionExists when it would give the pair a second open session.
	UpdateSession(ctx context.Context, s Session) (Session, error)
	// QuerySessions returns the most recent sessions first.
	QuerySessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	// CreateResponse fails with ErrAlreadyAnswered when the question was already answered in the session,
	// and with ErrSessionClosed when the session is completed.
	CreateResponse(ctx context.Context, r Response) (Response, error)
	// QueryResponses returns the responses of a session, oldest first.
	QueryResponses(ctx context.Context, sessionID string) ([]Response, error)
}

type ReportRepository interface {
	// SaveReport creates or replaces the report of a session.
	SaveReport(ctx context.Context, r Report) error
	GetReport(ctx context.Context, sessionID string) (Report, error)
	// QueryReports returns the reports of a child, most recent first.
	QueryReports(ctx context.Context, childID string) ([]Report, error)
}
