package journey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
)

type (
	// ProgressTracker stores the journey progress of a child.
	ProgressTracker interface {
		SetJourneyProgress(ctx context.Context, childID string, pct float64) error
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	// State is what a client needs to run (or resume) a questionnaire session.
	State struct {
		Session              Session             `json:"session"`
		AgeMonths            int                 `json:"age_months"`
		Questions            []PresentedQuestion `json:"questions"`
		AnsweredQuestionIDs  []string            `json:"answered_question_ids"`
		NextQuestion         *PresentedQuestion  `json:"next_question"`
		CompletionPercentage float64             `json:"completion_percentage"`
	}

	AnswerResult struct {
		Response     Response           `json:"response"`
		Feedback     string             `json:"feedback"`
		Activity     string             `json:"activity"`
		Session      Session            `json:"session"`
		NextQuestion *PresentedQuestion `json:"next_question"`
		Report       *Report            `json:"report,omitempty"`
	}
)

type Service struct {
	bank     *Bank
	sessions SessionRepository
	reports  ReportRepository
	progress ProgressTracker
	users    UserGetter
	mailSvc  core.EmailService
	scorer   Scorer
	logger   core.Logger
	nowFunc  func() time.Time
}

func NewService(
	bank *Bank,
	sessions SessionRepository,
	reports ReportRepository,
	progress ProgressTracker,
	users UserGetter,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		bank:     bank,
		sessions: sessions,
		reports:  reports,
		progress: progress,
		users:    users,
		mailSvc:  mailSvc,
		scorer:   NewScorer(),
		logger:   logger,
		nowFunc:  time.Now,
	}
}

func (svc *Service) Bank() *Bank {
	return svc.bank
}

// FetchOrCreateSession returns the open session of the (user, child) pair, or creates one
// bound to questions. A paused session is resumed. ErrNoQuestions is returned when there is
// no open session and no question to ask.
func (svc *Service) FetchOrCreateSession(ctx context.Context, userID string, c child.Child, questions []Question) (Session, error) {
	s, err := svc.sessions.GetOpenSession(ctx, userID, c.ID)
	if err == nil {
		return svc.reopen(ctx, s)
	}
	if !core.IsNotFound(err) {
		return Session{}, errors.Wrap(err, "finding open session")
	}

	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		if !core.StringInSlice(q.ID, ids) {
			ids = append(ids, q.ID)
		}
	}
	if len(ids) == 0 {
		return Session{}, ErrNoQuestions
	}

	now := svc.nowFunc().UTC()
	s, err = svc.sessions.CreateSession(ctx, Session{
		UserID:         userID,
		ChildID:        c.ID,
		TotalQuestions: len(ids),
		Status:         SessionActive,
		Data:           SessionData{AgeMonths: c.AgeMonths(now), QuestionIDs: ids},
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if errors.Cause(err) == ErrOpenSessionExists {
		// created concurrently by another request
		s, err = svc.sessions.GetOpenSession(ctx, userID, c.ID)
		if err != nil {
			return Session{}, errors.Wrap(err, "finding open session")
		}
		return svc.reopen(ctx, s)
	}
	return s, errors.Wrap(err, "creating session")
}

func (svc *Service) reopen(ctx context.Context, s Session) (Session, error) {
	if s.Status != SessionPaused {
		return s, nil
	}
	s.Status = SessionActive
	s.UpdatedAt = svc.nowFunc().UTC()
	s, err := svc.sessions.UpdateSession(ctx, s)
	return s, errors.Wrap(err, "resuming session")
}

// StartJourney binds the questions matching the child's age to the user's open session.
func (svc *Service) StartJourney(ctx context.Context, userID string, c child.Child) (State, error) {
	questions := svc.bank.ActiveQuestions(ctx, c.AgeMonths(svc.nowFunc()))
	s, err := svc.FetchOrCreateSession(ctx, userID, c, questions)
	if err != nil {
		return State{}, err
	}
	return svc.State(ctx, s, c)
}

// State loads the questions & answers of the session.
func (svc *Service) State(ctx context.Context, s Session, c child.Child) (State, error) {
	questions, err := svc.bank.QuestionsByID(ctx, s.Data.QuestionIDs)
	if err != nil {
		return State{}, err
	}
	responses, err := svc.sessions.QueryResponses(ctx, s.ID)
	if err != nil {
		return State{}, errors.Wrap(err, "loading responses")
	}

	subj := SubjectFor(c)
	state := State{
		Session:              s,
		AgeMonths:            c.AgeMonths(svc.nowFunc()),
		Questions:            PresentAll(questions, subj),
		AnsweredQuestionIDs:  make([]string, 0, len(responses)),
		CompletionPercentage: s.CompletionPercentage(),
	}
	for _, r := range responses {
		state.AnsweredQuestionIDs = append(state.AnsweredQuestionIDs, r.QuestionID)
	}
	if s.IsOpen() {
		state.NextQuestion = nextQuestion(questions, responses, subj)
	}
	return state, nil
}

func nextQuestion(questions []Question, responses []Response, subj Subject) *PresentedQuestion {
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = true
	}
	for _, q := range questions {
		if !answered[q.ID] {
			pq := Present(q, subj)
			return &pq
		}
	}
	return nil
}

// RecordAnswer stores the answer given by the session owner to one of the session questions.
// The session is completed once every question has been answered.
func (svc *Service) RecordAnswer(ctx context.Context, userID string, s Session, c child.Child, na NewAnswer) (AnswerResult, error) {
	s, err := svc.current(ctx, userID, s)
	if err != nil {
		return AnswerResult{}, err
	}
	if !s.HasQuestion(na.QuestionID) {
		return AnswerResult{}, core.NewValidationError(
			errors.New("invalid question"),
			core.FieldError{Field: "question_id", Error: "question does not belong to this session"},
		)
	}
	q, err := svc.bank.Get(ctx, na.QuestionID)
	if err != nil {
		return AnswerResult{}, errors.Wrap(err, "finding question")
	}

	subj := SubjectFor(c)
	answer := Answer(na.Answer)
	now := svc.nowFunc().UTC()
	r, err := svc.sessions.CreateResponse(ctx, Response{
		SessionID:  s.ID,
		QuestionID: q.ID,
		Dimension:  q.Dimension,
		Answer:     answer,
		AnswerText: Render(optionTemplates[answer], subj),
		CreatedAt:  now,
	})
	if err != nil {
		return AnswerResult{}, errors.Wrap(err, "recording response")
	}

	responses, err := svc.sessions.QueryResponses(ctx, s.ID)
	if err != nil {
		return AnswerResult{}, errors.Wrap(err, "loading responses")
	}
	s.AnsweredQuestions = countAnswered(s, responses)
	s.Status = SessionActive
	s.UpdatedAt = now

	result := AnswerResult{
		Response: r,
		Feedback: Render(q.FeedbackTemplate(answer), subj),
		Activity: Render(q.ActivityTemplate(), subj),
	}
	if s.AnsweredQuestions >= s.TotalQuestions {
		var report Report
		if s, report, err = svc.complete(ctx, s, responses, c); err != nil {
			return AnswerResult{}, err
		}
		result.Report = &report
	} else {
		if s, err = svc.sessions.UpdateSession(ctx, s); err != nil {
			return AnswerResult{}, errors.Wrap(err, "updating session")
		}
		questions, err := svc.bank.QuestionsByID(ctx, s.Data.QuestionIDs)
		if err != nil {
			return AnswerResult{}, err
		}
		result.NextQuestion = nextQuestion(questions, responses, subj)
	}
	result.Session = s
	svc.trackProgress(ctx, s)
	return result, nil
}

// countAnswered counts the session questions having a response, never more than the total.
func countAnswered(s Session, responses []Response) int {
	seen := make(map[string]bool, len(responses))
	for _, r := range responses {
		if s.HasQuestion(r.QuestionID) {
			seen[r.QuestionID] = true
		}
	}
	if len(seen) > s.TotalQuestions {
		return s.TotalQuestions
	}
	return len(seen)
}

// current reloads s, the copy held by the caller may be outdated.
func (svc *Service) current(ctx context.Context, userID string, s Session) (Session, error) {
	if s.UserID != userID {
		return Session{}, ErrSessionNotFound
	}
	stored, err := svc.sessions.GetSession(ctx, s.ID)
	if err != nil {
		return Session{}, errors.Wrap(err, "loading session")
	}
	if !stored.IsOpen() {
		return Session{}, ErrSessionClosed
	}
	return stored, nil
}

func (svc *Service) Pause(ctx context.Context, userID string, s Session) (Session, error) {
	s, err := svc.current(ctx, userID, s)
	if err != nil {
		return Session{}, err
	}
	if s.Status == SessionPaused {
		return s, nil
	}
	s.Status = SessionPaused
	s.UpdatedAt = svc.nowFunc().UTC()
	s, err = svc.sessions.UpdateSession(ctx, s)
	return s, errors.Wrap(err, "pausing session")
}

func (svc *Service) Resume(ctx context.Context, userID string, s Session) (Session, error) {
	s, err := svc.current(ctx, userID, s)
	if err != nil {
		return Session{}, err
	}
	return svc.reopen(ctx, s)
}

// Complete ends the session even if some questions were left unanswered.
func (svc *Service) Complete(ctx context.Context, userID string, s Session, c child.Child) (Session, Report, error) {
	s, err := svc.current(ctx, userID, s)
	if err != nil {
		return Session{}, Report{}, err
	}
	responses, err := svc.sessions.QueryResponses(ctx, s.ID)
	if err != nil {
		return Session{}, Report{}, errors.Wrap(err, "loading responses")
	}
	s.AnsweredQuestions = countAnswered(s, responses)
	s, report, err := svc.complete(ctx, s, responses, c)
	if err != nil {
		return Session{}, Report{}, err
	}
	svc.trackProgress(ctx, s)
	return s, report, nil
}

func (svc *Service) complete(ctx context.Context, s Session, responses []Response, c child.Child) (Session, Report, error) {
	now := svc.nowFunc().UTC()
	s.Status = SessionCompleted
	s.CompletedAt = &now
	s.UpdatedAt = now
	report := svc.scorer.Generate(s, responses, now)
	s.Data.Report = &report

	s, err := svc.sessions.UpdateSession(ctx, s)
	if err != nil {
		return Session{}, Report{}, errors.Wrap(err, "completing session")
	}
	if err = svc.reports.SaveReport(ctx, report); err != nil {
		return Session{}, Report{}, errors.Wrap(err, "saving report")
	}
	svc.sendReport(ctx, report, c)
	return s, report, nil
}

// Report returns the cached report of a completed session; it is computed for open sessions.
func (svc *Service) Report(ctx context.Context, s Session) (Report, error) {
	if s.Status == SessionCompleted && s.Data.Report != nil {
		return *s.Data.Report, nil
	}
	responses, err := svc.sessions.QueryResponses(ctx, s.ID)
	if err != nil {
		return Report{}, errors.Wrap(err, "loading responses")
	}
	return svc.scorer.Generate(s, responses, svc.nowFunc()), nil
}

func (svc *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.sessions.GetSession(ctx, id)
}

func (svc *Service) Sessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	return svc.sessions.QuerySessions(ctx, filter)
}

func (svc *Service) Responses(ctx context.Context, sessionID string) ([]Response, error) {
	return svc.sessions.QueryResponses(ctx, sessionID)
}

// ChildReports returns the reports of the child's completed sessions, most recent first.
func (svc *Service) ChildReports(ctx context.Context, childID string) ([]Report, error) {
	return svc.reports.QueryReports(ctx, childID)
}

func (svc *Service) trackProgress(ctx context.Context, s Session) {
	if svc.progress == nil {
		return
	}
	if err := svc.progress.SetJourneyProgress(ctx, s.ChildID, s.CompletionPercentage()); err != nil {
		svc.logger.Error(fmt.Sprintf("journey: updating progress of child %s: %v", s.ChildID, err), err, map[string]interface{}{"session_id": s.ID})
	}
}

type (
	reportScore struct {
		Label   string
		Score   float64
		Concern bool
	}

	reportMailData struct {
		Name            string
		ChildName       string
		OverallScore    float64
		Completion      float64
		Scores          []reportScore
		Recommendations []string
	}
)

func (svc *Service) sendReport(ctx context.Context, report Report, c child.Child) {
	if svc.users == nil || svc.mailSvc == nil {
		return
	}
	usr, err := svc.users.GetByID(ctx, report.UserID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("journey: finding report recipient: %v", err), err, map[string]interface{}{"session_id": report.SessionID})
		return
	}

	data := reportMailData{
		Name:            usr.Name,
		ChildName:       c.FirstName,
		OverallScore:    report.OverallScore,
		Completion:      report.CompletionPercentage,
		Recommendations: report.Recommendations,
	}
	concerns := make(map[Dimension]bool, len(report.Concerns))
	for _, d := range report.Concerns {
		concerns[d] = true
	}
	for _, d := range report.ScoredDimensions() {
		data.Scores = append(data.Scores, reportScore{Label: d.Label(), Score: report.DimensionScores[d], Concern: concerns[d]})
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Relatório da jornada de %s", c.FirstName),
		TemplateName: "journey_report",
		TemplateData: data,
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err == nil {
		err = msg.Attach(bytes.NewReader(body), "relatorio.json", "application/json")
	}
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("journey: attaching report: %v", err), err, map[string]interface{}{"session_id": report.SessionID})
	}
	svc.mailSvc.SendMessages(msg)
}
