package journey_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
	emailsvc "github.com/jhsobrinho/educareapp-sub009/services/email"
	logsvc "github.com/jhsobrinho/educareapp-sub009/services/logger"
	inmemdb "github.com/jhsobrinho/educareapp-sub009/storage/database/inmem"
	testutil "github.com/jhsobrinho/educareapp-sub009/tests"
)

type fixture struct {
	svc       *journey.Service
	childSvc  *child.Service
	mailSvc   *emailsvc.ConsoleServiceMock
	usrRepo   user.Repository
	childRepo child.Repository
	qRepo     journey.QuestionRepository
	caregiver user.User
	ana       child.Child
	questions []journey.Question
}

func setup(t *testing.T) *fixture {
	db := inmemdb.Open()
	conf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()

	f := &fixture{
		mailSvc:   emailsvc.NewConsoleServiceMock(conf, logger),
		usrRepo:   inmemdb.NewUserRepository(db),
		childRepo: inmemdb.NewChildRepository(db),
		qRepo:     inmemdb.NewQuestionRepository(db),
	}
	f.childSvc = child.NewService(f.childRepo)
	usrSvc := user.NewService(f.usrRepo, f.mailSvc, conf)
	bank := journey.NewBank(f.qRepo, nil, logger)
	f.svc = journey.NewService(
		bank,
		inmemdb.NewSessionRepository(db),
		inmemdb.NewReportRepository(db),
		f.childSvc,
		usrSvc,
		f.mailSvc,
		logger,
	)

	f.caregiver = testutil.CreateUser(t, f.usrRepo, "Maria", "maria", "maria@example.com", "", []string{user.RoleCaregiver}, true)
	f.ana = testutil.CreateChild(t, f.childRepo, f.caregiver.ID, "Ana", child.GenderFemale, testutil.BirthDateForAge(9))
	f.questions = []journey.Question{
		testutil.CreateQuestion(t, f.qRepo, "mg-7-12-1", journey.DimensionGrossMotor, 7, 12, 1),
		testutil.CreateQuestion(t, f.qRepo, "mg-7-12-2", journey.DimensionGrossMotor, 7, 12, 2),
		testutil.CreateQuestion(t, f.qRepo, "ln-7-12-3", journey.DimensionLanguage, 7, 12, 3),
	}
	// other age ranges
	testutil.CreateQuestion(t, f.qRepo, "mg-0-6-1", journey.DimensionGrossMotor, 0, 6, 1)
	testutil.CreateQuestion(t, f.qRepo, "ln-13-18-1", journey.DimensionLanguage, 13, 18, 1)
	return f
}

func TestService_FetchOrCreateSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("no questions", func(t *testing.T) {
		_, err := f.svc.FetchOrCreateSession(ctx, f.caregiver.ID, f.ana, nil)
		assert.Equal(t, journey.ErrNoQuestions, errors.Cause(err))
		sessions, err := f.svc.Sessions(ctx, journey.SessionFilter{ChildID: f.ana.ID})
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("idempotent", func(t *testing.T) {
		s1, err := f.svc.FetchOrCreateSession(ctx, f.caregiver.ID, f.ana, f.questions)
		require.NoError(t, err)
		assert.Equal(t, 3, s1.TotalQuestions)
		assert.Equal(t, 0, s1.AnsweredQuestions)
		assert.Equal(t, journey.SessionActive, s1.Status)
		assert.Equal(t, 9, s1.Data.AgeMonths)

		s2, err := f.svc.FetchOrCreateSession(ctx, f.caregiver.ID, f.ana, f.questions[:1])
		require.NoError(t, err)
		assert.Equal(t, s1.ID, s2.ID)
		assert.Equal(t, 3, s2.TotalQuestions)

		// an open session is returned even if no question is available anymore
		s3, err := f.svc.FetchOrCreateSession(ctx, f.caregiver.ID, f.ana, nil)
		require.NoError(t, err)
		assert.Equal(t, s1.ID, s3.ID)
	})

	t.Run("paused session is resumed", func(t *testing.T) {
		s, err := f.svc.FetchOrCreateSession(ctx, f.caregiver.ID, f.ana, f.questions)
		require.NoError(t, err)
		s, err = f.svc.Pause(ctx, f.caregiver.ID, s)
		require.NoError(t, err)
		assert.Equal(t, journey.SessionPaused, s.Status)

		resumed, err := f.svc.FetchOrCreateSession(ctx, f.caregiver.ID, f.ana, f.questions)
		require.NoError(t, err)
		assert.Equal(t, s.ID, resumed.ID)
		assert.Equal(t, journey.SessionActive, resumed.Status)
	})
}

func TestService_FetchOrCreateSession_Concurrent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	const n = 20
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := f.svc.FetchOrCreateSession(ctx, f.caregiver.ID, f.ana, f.questions)
			ids[i], errs[i] = s.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	sessions, err := f.svc.Sessions(ctx, journey.SessionFilter{UserID: f.caregiver.ID, ChildID: f.ana.ID})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestService_StartJourney(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	state, err := f.svc.StartJourney(ctx, f.caregiver.ID, f.ana)
	require.NoError(t, err)
	assert.Equal(t, 9, state.AgeMonths)
	assert.Equal(t, 3, state.Session.TotalQuestions)
	require.Len(t, state.Questions, 3)
	for i, pq := range state.Questions {
		assert.Equal(t, f.questions[i].ID, pq.ID)
	}
	assert.Equal(t, "Ana consegue fazer mg-7-12-1?", state.Questions[0].Text)
	assert.Equal(t, "Parabéns, Ana!", state.Questions[0].Feedback.Yes)
	assert.Empty(t, state.AnsweredQuestionIDs)
	require.NotNil(t, state.NextQuestion)
	assert.Equal(t, f.questions[0].ID, state.NextQuestion.ID)

	again, err := f.svc.StartJourney(ctx, f.caregiver.ID, f.ana)
	require.NoError(t, err)
	assert.Equal(t, state.Session.ID, again.Session.ID)
}

func TestService_StartJourney_FallbackModule(t *testing.T) {
	f := setup(t)
	baby := testutil.CreateChild(t, f.childRepo, f.caregiver.ID, "Leo", child.GenderMale, testutil.BirthDateForAge(0))
	state, err := f.svc.StartJourney(context.Background(), f.caregiver.ID, baby)
	require.NoError(t, err) // the 0-6 module is current
	assert.Equal(t, "Leo consegue fazer mg-0-6-1?", state.Questions[0].Text)

	for _, q := range f.questions {
		require.NoError(t, f.qRepo.DeleteQuestion(context.Background(), q.ID))
	}
	// 9 months: no current module, falls back to 0-6
	state, err = f.svc.StartJourney(context.Background(), f.caregiver.ID, f.ana)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Session.TotalQuestions)
}

func TestService_StartJourney_NoQuestions(t *testing.T) {
	f := setup(t)
	bia := testutil.CreateChild(t, f.childRepo, f.caregiver.ID, "Bia", child.GenderFemale, testutil.BirthDateForAge(9))
	for _, code := range []string{"mg-0-6-1", "mg-7-12-1", "mg-7-12-2", "ln-7-12-3"} {
		qs, err := f.qRepo.QueryQuestions(context.Background(), journey.QuestionFilter{Codes: []string{code}})
		require.NoError(t, err)
		require.NoError(t, f.qRepo.DeleteQuestion(context.Background(), qs[0].ID))
	}
	// only the locked 13-18 module is left
	_, err := f.svc.StartJourney(context.Background(), f.caregiver.ID, bia)
	assert.Equal(t, journey.ErrNoQuestions, errors.Cause(err))
}

func TestService_RecordAnswer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.usrRepo, "Other", "other", "other@example.com", "", []string{user.RoleCaregiver}, true)

	state, err := f.svc.StartJourney(ctx, f.caregiver.ID, f.ana)
	require.NoError(t, err)
	s := state.Session

	t.Run("invalid", func(t *testing.T) {
		_, err := f.svc.RecordAnswer(ctx, other.ID, s, f.ana, journey.NewAnswer{QuestionID: f.questions[0].ID, Answer: 1})
		assert.True(t, core.IsNotFound(err))

		outside, err := f.qRepo.QueryQuestions(ctx, journey.QuestionFilter{Codes: []string{"mg-0-6-1"}})
		require.NoError(t, err)
		_, err = f.svc.RecordAnswer(ctx, f.caregiver.ID, s, f.ana, journey.NewAnswer{QuestionID: outside[0].ID, Answer: 1})
		_, ok := errors.Cause(err).(*core.ValidationError)
		assert.True(t, ok)
	})

	var res journey.AnswerResult
	t.Run("first answer", func(t *testing.T) {
		res, err = f.svc.RecordAnswer(ctx, f.caregiver.ID, s, f.ana, journey.NewAnswer{QuestionID: f.questions[0].ID, Answer: int(journey.AnswerYes)})
		require.NoError(t, err)
		assert.Equal(t, journey.DimensionGrossMotor, res.Response.Dimension)
		assert.Equal(t, journey.AnswerYes, res.Response.Answer)
		assert.Equal(t, "Sim, Ana já faz isso", res.Response.AnswerText)
		assert.Equal(t, "Parabéns, Ana!", res.Feedback)
		assert.Equal(t, "Brinque de mg-7-12-1 com Ana.", res.Activity)
		assert.Equal(t, 1, res.Session.AnsweredQuestions)
		assert.Nil(t, res.Report)
		require.NotNil(t, res.NextQuestion)
		assert.Equal(t, f.questions[1].ID, res.NextQuestion.ID)

		c, err := f.childSvc.Get(ctx, f.ana.ID)
		require.NoError(t, err)
		assert.InDelta(t, 100.0/3, c.JourneyProgress, 1e-9)
	})

	t.Run("already answered", func(t *testing.T) {
		_, err := f.svc.RecordAnswer(ctx, f.caregiver.ID, res.Session, f.ana, journey.NewAnswer{QuestionID: f.questions[0].ID, Answer: 3})
		assert.Equal(t, journey.ErrAlreadyAnswered, errors.Cause(err))
	})

	t.Run("completes the session", func(t *testing.T) {
		res, err = f.svc.RecordAnswer(ctx, f.caregiver.ID, res.Session, f.ana, journey.NewAnswer{QuestionID: f.questions[1].ID, Answer: int(journey.AnswerSometimes)})
		require.NoError(t, err)
		res, err = f.svc.RecordAnswer(ctx, f.caregiver.ID, res.Session, f.ana, journey.NewAnswer{QuestionID: f.questions[2].ID, Answer: int(journey.AnswerNo)})
		require.NoError(t, err)

		assert.Equal(t, journey.SessionCompleted, res.Session.Status)
		assert.Equal(t, 3, res.Session.AnsweredQuestions)
		assert.NotNil(t, res.Session.CompletedAt)
		assert.Nil(t, res.NextQuestion)
		require.NotNil(t, res.Report)
		assert.Equal(t, map[journey.Dimension]float64{journey.DimensionGrossMotor: 75, journey.DimensionLanguage: 0}, res.Report.DimensionScores)
		assert.Equal(t, 37.5, res.Report.OverallScore)
		assert.Equal(t, []journey.Dimension{journey.DimensionLanguage}, res.Report.Concerns)
		assert.Equal(t, float64(100), res.Report.CompletionPercentage)

		// cached report
		stored, err := f.svc.GetSession(ctx, res.Session.ID)
		require.NoError(t, err)
		report, err := f.svc.Report(ctx, stored)
		require.NoError(t, err)
		assert.Equal(t, *res.Report, report)

		reports, err := f.svc.ChildReports(ctx, f.ana.ID)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, res.Session.ID, reports[0].SessionID)

		// report email
		sent := f.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "maria@example.com", sent[0].To[0].Address)
		assert.Equal(t, "journey_report", sent[0].TemplateName)
		assert.True(t, sent[0].HasAttachments())

		c, err := f.childSvc.Get(ctx, f.ana.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(100), c.JourneyProgress)
	})

	t.Run("closed session", func(t *testing.T) {
		_, err := f.svc.RecordAnswer(ctx, f.caregiver.ID, res.Session, f.ana, journey.NewAnswer{QuestionID: f.questions[2].ID, Answer: 1})
		assert.Equal(t, journey.ErrSessionClosed, errors.Cause(err))

		// a new session can be started
		state, err := f.svc.StartJourney(ctx, f.caregiver.ID, f.ana)
		require.NoError(t, err)
		assert.NotEqual(t, res.Session.ID, state.Session.ID)
	})
}

func TestService_PauseResumeComplete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	state, err := f.svc.StartJourney(ctx, f.caregiver.ID, f.ana)
	require.NoError(t, err)
	s := state.Session

	s, err = f.svc.Pause(ctx, f.caregiver.ID, s)
	require.NoError(t, err)
	assert.Equal(t, journey.SessionPaused, s.Status)

	// answering a paused session resumes it
	res, err := f.svc.RecordAnswer(ctx, f.caregiver.ID, s, f.ana, journey.NewAnswer{QuestionID: f.questions[2].ID, Answer: 2})
	require.NoError(t, err)
	assert.Equal(t, journey.SessionActive, res.Session.Status)

	s, err = f.svc.Pause(ctx, f.caregiver.ID, res.Session)
	require.NoError(t, err)
	s, err = f.svc.Resume(ctx, f.caregiver.ID, s)
	require.NoError(t, err)
	assert.Equal(t, journey.SessionActive, s.Status)

	// in-progress report
	report, err := f.svc.Report(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, map[journey.Dimension]float64{journey.DimensionLanguage: 50}, report.DimensionScores)
	assert.InDelta(t, 100.0/3, report.CompletionPercentage, 1e-9)

	s, report, err = f.svc.Complete(ctx, f.caregiver.ID, s, f.ana)
	require.NoError(t, err)
	assert.Equal(t, journey.SessionCompleted, s.Status)
	assert.Equal(t, 1, s.AnsweredQuestions)
	assert.Equal(t, float64(50), report.OverallScore)
	require.NotNil(t, s.Data.Report)

	_, err = f.svc.Pause(ctx, f.caregiver.ID, s)
	assert.Equal(t, journey.ErrSessionClosed, errors.Cause(err))
	_, err = f.svc.Resume(ctx, f.caregiver.ID, s)
	assert.Equal(t, journey.ErrSessionClosed, errors.Cause(err))
	_, _, err = f.svc.Complete(ctx, f.caregiver.ID, s, f.ana)
	assert.Equal(t, journey.ErrSessionClosed, errors.Cause(err))
}

func TestService_OutdatedSessionCopy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	state, err := f.svc.StartJourney(ctx, f.caregiver.ID, f.ana)
	require.NoError(t, err)
	outdated := state.Session

	completed, _, err := f.svc.Complete(ctx, f.caregiver.ID, outdated, f.ana)
	require.NoError(t, err)
	next, err := f.svc.StartJourney(ctx, f.caregiver.ID, f.ana)
	require.NoError(t, err)
	require.NotEqual(t, completed.ID, next.Session.ID)

	// every write made through the copy loaded before completion is refused
	_, err = f.svc.RecordAnswer(ctx, f.caregiver.ID, outdated, f.ana, journey.NewAnswer{QuestionID: f.questions[0].ID, Answer: 1})
	assert.Equal(t, journey.ErrSessionClosed, errors.Cause(err))
	_, err = f.svc.Pause(ctx, f.caregiver.ID, outdated)
	assert.Equal(t, journey.ErrSessionClosed, errors.Cause(err))
	_, err = f.svc.Resume(ctx, f.caregiver.ID, outdated)
	assert.Equal(t, journey.ErrSessionClosed, errors.Cause(err))
	_, _, err = f.svc.Complete(ctx, f.caregiver.ID, outdated, f.ana)
	assert.Equal(t, journey.ErrSessionClosed, errors.Cause(err))

	stored, err := f.svc.GetSession(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, journey.SessionCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.NotNil(t, stored.Data.Report)
	responses, err := f.svc.Responses(ctx, completed.ID)
	require.NoError(t, err)
	assert.Empty(t, responses)

	open, err := f.svc.Sessions(ctx, journey.SessionFilter{
		UserID:   f.caregiver.ID,
		ChildID:  f.ana.ID,
		Statuses: []journey.SessionStatus{journey.SessionActive, journey.SessionPaused},
	})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, next.Session.ID, open[0].ID)
}

func TestSessionRepository_guardedWrites(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	repo := inmemdb.NewSessionRepository(inmemdb.Open())
	now := time.Now().UTC()

	first, err := repo.CreateSession(ctx, journey.Session{
		UserID: f.caregiver.ID, ChildID: f.ana.ID, TotalQuestions: 1, Status: journey.SessionActive, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	first.Status = journey.SessionCompleted
	first.CompletedAt = &now
	first, err = repo.UpdateSession(ctx, first)
	require.NoError(t, err)

	second, err := repo.CreateSession(ctx, journey.Session{
		UserID: f.caregiver.ID, ChildID: f.ana.ID, TotalQuestions: 1, Status: journey.SessionActive, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	reopened := first
	reopened.Status = journey.SessionActive
	reopened.CompletedAt = nil
	_, err = repo.UpdateSession(ctx, reopened)
	assert.Equal(t, journey.ErrSessionClosed, err)
	_, err = repo.CreateResponse(ctx, journey.Response{SessionID: first.ID, QuestionID: f.questions[0].ID, Answer: journey.AnswerYes})
	assert.Equal(t, journey.ErrSessionClosed, err)

	second.Status = journey.SessionPaused
	_, err = repo.UpdateSession(ctx, second)
	assert.NoError(t, err)
}
