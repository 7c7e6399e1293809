package boiledrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
	boiledrepos "github.com/jhsobrinho/educareapp-sub009/storage/database/sqlboiler"
	sqlxrepos "github.com/jhsobrinho/educareapp-sub009/storage/database/sqlx"
	testutil "github.com/jhsobrinho/educareapp-sub009/tests"
)

func TestReportRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	xdb := sqlxrepos.NewDB(db)
	ctx := context.Background()
	repo := boiledrepos.NewReportRepository(db)

	uname := testutil.UniqueName("maria")
	owner := testutil.CreateUser(t, sqlxrepos.NewUserRepository(xdb), "Maria", uname, uname+"@test.local", "", []string{user.RoleCaregiver}, true)
	ana := testutil.CreateChild(t, sqlxrepos.NewChildRepository(xdb), owner.ID, "Ana", child.GenderFemale, testutil.BirthDateForAge(9))
	now := time.Now().UTC().Truncate(time.Microsecond)
	s, err := sqlxrepos.NewSessionRepository(xdb).CreateSession(ctx, journey.Session{
		UserID:         owner.ID,
		ChildID:        ana.ID,
		TotalQuestions: 4,
		Status:         journey.SessionActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)

	report := journey.Report{
		SessionID: s.ID,
		ChildID:   ana.ID,
		UserID:    owner.ID,
		DimensionScores: map[journey.Dimension]float64{
			journey.DimensionGrossMotor: 100,
			journey.DimensionLanguage:   25,
		},
		OverallScore:         62.5,
		Concerns:             []journey.Dimension{journey.DimensionLanguage},
		Recommendations:      []string{"Converse bastante com Ana."},
		CompletionPercentage: 50,
		GeneratedAt:          now,
	}

	checkReport := func(t *testing.T, want, got journey.Report) {
		t.Helper()
		assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt), "generated_at = %v, want %v", got.GeneratedAt, want.GeneratedAt)
		got.GeneratedAt = want.GeneratedAt
		assert.Equal(t, want, got)
	}

	require.NoError(t, repo.SaveReport(ctx, report))
	got, err := repo.GetReport(ctx, s.ID)
	require.NoError(t, err)
	checkReport(t, report, got)

	t.Run("save replaces the report of the session", func(t *testing.T) {
		report.DimensionScores[journey.DimensionLanguage] = 75
		report.OverallScore = 87.5
		report.Concerns = []journey.Dimension{}
		report.Recommendations = []string{}
		report.CompletionPercentage = 100
		require.NoError(t, repo.SaveReport(ctx, report))

		got, err := repo.GetReport(ctx, s.ID)
		require.NoError(t, err)
		checkReport(t, report, got)

		reports, err := repo.QueryReports(ctx, ana.ID)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		checkReport(t, report, reports[0])
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := repo.GetReport(ctx, "unknown")
		assert.Equal(t, journey.ErrReportNotFound, err)
		_, err = repo.GetReport(ctx, ana.ID)
		assert.Equal(t, journey.ErrReportNotFound, err)

		reports, err := repo.QueryReports(ctx, "unknown")
		require.NoError(t, err)
		assert.Empty(t, reports)
	})
}
