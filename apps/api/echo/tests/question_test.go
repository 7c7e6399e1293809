package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jhsobrinho/educareapp-sub009/apps/api/echo"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
	"github.com/jhsobrinho/educareapp-sub009/tests"
)

func Test_questionApi_dimensions(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Maria", "mariasouza", "maria@test.local", "", []string{user.RoleCaregiver}, true)

	app.runTests(t, []httpTest{
		{name: "auth required", path: "/api/dimensions", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "success", path: "/api/dimensions", token: getToken(t, app.conf, usr), wantData: success(t, journey.Dimensions)},
	})
}

func Test_questionApi_query(t *testing.T) {
	app := setup(t)
	caregiver := testutil.CreateUser(t, app.usrRepo, "Maria", "mariasouza", "maria@test.local", "", []string{user.RoleCaregiver}, true)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "adminuser", "admin@test.local", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, app.conf, admin)

	early := testutil.CreateQuestion(t, app.questionRepo, "early", journey.DimensionLanguage, 0, 3, 1)
	motor := testutil.CreateQuestion(t, app.questionRepo, "motor", journey.DimensionGrossMotor, 4, 6, 1)
	language := testutil.CreateQuestion(t, app.questionRepo, "language", journey.DimensionLanguage, 4, 6, 2)
	disabled := testutil.CreateQuestion(t, app.questionRepo, "disabled", journey.DimensionCognitive, 4, 6, 3)
	disabled.IsActive = false
	disabled, err := app.questionRepo.UpdateQuestion(context.Background(), disabled)
	require.NoError(t, err)

	app.runTests(t, []httpTest{
		{
			name: "admin required", path: "/api/questions", token: getToken(t, app.conf, caregiver),
			wantCode: http.StatusForbidden, wantData: failure(t, "permission denied"),
		},
		{name: "all", path: "/api/questions", token: adminToken, wantData: success(t, []journey.Question{early, motor, language, disabled})},
		{name: "by dimension", path: "/api/questions?dimension=LINGUAGEM", token: adminToken, wantData: success(t, []journey.Question{early, language})},
		{name: "by age", path: "/api/questions?age_months=5", token: adminToken, wantData: success(t, []journey.Question{motor, language, disabled})},
		{name: "inactive", path: "/api/questions?is_active=false", token: adminToken, wantData: success(t, []journey.Question{disabled})},
		{name: "none", path: "/api/questions?dimension=autocuidado", token: adminToken, wantData: success(t, []journey.Question{})},
	})
}

func Test_questionApi_crud(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "adminuser", "admin@test.local", "", []string{user.RoleAdmin}, true)
	token := getToken(t, app.conf, admin)
	testutil.CreateQuestion(t, app.questionRepo, "taken", journey.DimensionLanguage, 0, 3, 1)

	newQuestion := journey.NewQuestion{
		Code:        " Sits-Alone ",
		Dimension:   "motor_grosso",
		Text:        "{childName} senta sem apoio?",
		MinMonths:   4,
		MaxMonths:   6,
		FeedbackYes: "Muito bem!",
		TipsNo:      []string{"Coloque {childName} sentado com almofadas.", " "},
	}

	app.runTests(t, []httpTest{
		{
			name: "invalid dimension", method: http.MethodPost, path: "/api/questions", token: token,
			body:     marchallObj(t, journey.NewQuestion{Dimension: "lol", Text: "?", MinMonths: 0, MaxMonths: 1}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, Response{Error: "invalid data", Data: map[string]string{"dimension": "dimension must be a valid dimension"}}),
		},
		{
			name: "invalid age range", method: http.MethodPost, path: "/api/questions", token: token,
			body:     marchallObj(t, journey.NewQuestion{Dimension: "linguagem", Text: "?", MinMonths: 6, MaxMonths: 4}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate code", method: http.MethodPost, path: "/api/questions", token: token,
			body:     marchallObj(t, journey.NewQuestion{Code: "TAKEN", Dimension: "linguagem", Text: "?", MaxMonths: 3}),
			wantCode: http.StatusConflict, wantData: failure(t, journey.ErrDuplicateCode.Error()),
		},
		{name: "unknown", path: "/api/questions/unknown", token: token, wantCode: http.StatusNotFound},
	})

	rec := app.run(t, httpTest{method: http.MethodPost, path: "/api/questions", token: token, body: marchallObj(t, newQuestion)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var q journey.Question
	decodeData(t, rec, &q)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "sits-alone", q.Code)
	assert.Equal(t, journey.DimensionGrossMotor, q.Dimension)
	assert.True(t, q.IsActive)
	assert.Equal(t, []string{"Coloque {childName} sentado com almofadas."}, q.TipsNo)

	app.runTests(t, []httpTest{
		{name: "retrieve", path: "/api/questions/" + q.ID, token: token, wantData: success(t, q)},
		{
			name: "update with invalid age range", method: http.MethodPut, path: "/api/questions/" + q.ID, token: token,
			body: []byte(`{"max_months": 2}`), wantCode: http.StatusBadRequest,
		},
	})

	t.Run("update", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method: http.MethodPut, path: "/api/questions/" + q.ID, token: token,
			body: []byte(`{"text": "{childName} senta sozinho?", "is_active": false, "order_index": 3}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated journey.Question
		decodeData(t, rec, &updated)
		assert.Equal(t, "{childName} senta sozinho?", updated.Text)
		assert.False(t, updated.IsActive)
		assert.Equal(t, 3, updated.OrderIndex)
		assert.Equal(t, 4, updated.MinMonths)
		assert.Equal(t, "Muito bem!", updated.FeedbackYes)
	})

	app.runTests(t, []httpTest{
		{
			name: "delete", method: http.MethodDelete, path: "/api/questions/" + q.ID, token: token,
			wantData: marchallObj(t, Response{Success: true, Message: "question deleted"}),
		},
		{name: "deleted", path: "/api/questions/" + q.ID, token: token, wantCode: http.StatusNotFound},
		{name: "delete again", method: http.MethodDelete, path: "/api/questions/" + q.ID, token: token, wantCode: http.StatusNotFound},
	})
}
