package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jhsobrinho/educareapp-sub009/apps/api/echo"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
	"github.com/jhsobrinho/educareapp-sub009/tests"
)

func Test_invitationApi_invite(t *testing.T) {
	app := setup(t)
	owner := testutil.CreateUser(t, app.usrRepo, "Maria", "mariasouza", "maria@test.local", "", []string{user.RoleCaregiver}, true)
	shared := testutil.CreateUser(t, app.usrRepo, "Shared", "shareduser", "shared@test.local", "", []string{user.RoleProfessional}, true)
	stranger := testutil.CreateUser(t, app.usrRepo, "Joana", "joanalima", "joana@test.local", "", []string{user.RoleCaregiver}, true)
	ana := testutil.CreateChild(t, app.childRepo, owner.ID, "Ana", child.GenderFemale, testutil.BirthDateForAge(10))
	testutil.CreateInvitation(t, app.invRepo, ana.ID, owner.ID, shared.Email, invitation.StatusApproved, shared.ID)

	path := "/api/children/" + ana.ID + "/invitations"
	ownerToken := getToken(t, app.conf, owner)
	body := func(email string) []byte {
		return marchallObj(t, invitation.NewInvitation{Email: email, Message: "Olá, doutor!"})
	}

	app.runTests(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: path, body: body("prof@test.local"), wantCode: http.StatusUnauthorized},
		{
			name: "invalid email", method: http.MethodPost, path: path, token: ownerToken, body: body("lol"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, Response{Error: "invalid data", Data: map[string]string{"email": "email must be a valid email address"}}),
		},
		{
			name: "self invitation", method: http.MethodPost, path: path, token: ownerToken, body: body("MARIA@test.local"),
			wantCode: http.StatusConflict, wantData: failure(t, invitation.ErrSelfInvitation.Error()),
		},
		{
			name: "already shared", method: http.MethodPost, path: path, token: ownerToken, body: body(shared.Email),
			wantCode: http.StatusConflict, wantData: failure(t, invitation.ErrAlreadyInvited.Error()),
		},
		{
			name: "shared professional cannot invite", method: http.MethodPost, path: path, token: getToken(t, app.conf, shared),
			body: body("prof@test.local"), wantCode: http.StatusForbidden, wantData: failure(t, "permission denied"),
		},
		{
			name: "stranger", method: http.MethodPost, path: path, token: getToken(t, app.conf, stranger),
			body: body("prof@test.local"), wantCode: http.StatusNotFound,
		},
	})
	assert.Empty(t, app.mailSvc.SentMessages())

	rec := app.run(t, httpTest{method: http.MethodPost, path: path, token: ownerToken, body: body(" Prof@Test.local ")})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv invitation.Invitation
	decodeData(t, rec, &inv)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, ana.ID, inv.ChildID)
	assert.Equal(t, owner.ID, inv.InvitedBy)
	assert.Equal(t, "prof@test.local", inv.Email)
	assert.Equal(t, invitation.StatusPending, inv.Status)
	assert.Nil(t, inv.RespondedAt)

	sent := app.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "prof@test.local", sent[0].To[0].Address)
	assert.Equal(t, "invitation", sent[0].TemplateName)

	t.Run("pending invitation cannot be sent twice", func(t *testing.T) {
		rec := app.run(t, httpTest{method: http.MethodPost, path: path, token: ownerToken, body: body("prof@test.local")})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("owner lists the invitations", func(t *testing.T) {
		rec := app.run(t, httpTest{path: path, token: ownerToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var invs []invitation.Invitation
		decodeData(t, rec, &invs)
		require.Len(t, invs, 2)
		assert.Equal(t, inv.ID, invs[0].ID)
		assert.Equal(t, invitation.StatusApproved, invs[1].Status)
	})

	t.Run("shared professional cannot list", func(t *testing.T) {
		rec := app.run(t, httpTest{path: path, token: getToken(t, app.conf, shared)})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_invitationApi_professional(t *testing.T) {
	app := setup(t)
	owner := testutil.CreateUser(t, app.usrRepo, "Maria", "mariasouza", "maria@test.local", "", []string{user.RoleCaregiver}, true)
	prof := testutil.CreateUser(t, app.usrRepo, "Prof", "profuser", "prof@test.local", "", []string{user.RoleProfessional}, true)
	other := testutil.CreateUser(t, app.usrRepo, "Other", "otherprof", "other@test.local", "", []string{user.RoleProfessional}, true)
	ana := testutil.CreateChild(t, app.childRepo, owner.ID, "Ana", child.GenderFemale, testutil.BirthDateForAge(10))
	beto := testutil.CreateChild(t, app.childRepo, owner.ID, "Beto", child.GenderMale, testutil.BirthDateForAge(20))
	anaInv := testutil.CreateInvitation(t, app.invRepo, ana.ID, owner.ID, prof.Email, invitation.StatusPending, "")
	betoInv := testutil.CreateInvitation(t, app.invRepo, beto.ID, owner.ID, prof.Email, invitation.StatusPending, "")

	profToken := getToken(t, app.conf, prof)
	otherToken := getToken(t, app.conf, other)

	app.runTests(t, []httpTest{
		{
			name: "caregiver forbidden", path: "/api/professional/invitations", token: getToken(t, app.conf, owner),
			wantCode: http.StatusForbidden, wantData: failure(t, "permission denied"),
		},
		{name: "no invitations", path: "/api/professional/invitations", token: otherToken, wantData: success(t, []invitation.Invitation{})},
		{name: "not the invitee", path: "/api/professional/invitations/" + anaInv.ID, token: otherToken, wantCode: http.StatusNotFound},
		{name: "retrieve", path: "/api/professional/invitations/" + anaInv.ID, token: profToken, wantData: success(t, anaInv)},
		{
			name: "other professional cannot accept", method: http.MethodPost, path: "/api/professional/invitations/" + anaInv.ID + "/accept",
			token: otherToken, wantCode: http.StatusNotFound,
		},
		{name: "child not shared yet", path: "/api/children/" + ana.ID, token: profToken, wantCode: http.StatusNotFound},
	})

	t.Run("list", func(t *testing.T) {
		rec := app.run(t, httpTest{path: "/api/professional/invitations?status=pending", token: profToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var invs []invitation.Invitation
		decodeData(t, rec, &invs)
		assert.Len(t, invs, 2)
	})

	t.Run("accept", func(t *testing.T) {
		rec := app.run(t, httpTest{method: http.MethodPost, path: "/api/professional/invitations/" + anaInv.ID + "/accept", token: profToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"status":"approved"`)
		var inv invitation.Invitation
		decodeData(t, rec, &inv)
		assert.Equal(t, invitation.StatusApproved, inv.Status)
		assert.Equal(t, prof.ID, inv.ProfessionalID)
		assert.NotNil(t, inv.RespondedAt)

		rec = app.run(t, httpTest{path: "/api/children/" + ana.ID, token: profToken})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("reject", func(t *testing.T) {
		rec := app.run(t, httpTest{method: http.MethodPost, path: "/api/professional/invitations/" + betoInv.ID + "/reject", token: profToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var inv invitation.Invitation
		decodeData(t, rec, &inv)
		assert.Equal(t, invitation.StatusRejected, inv.Status)
		assert.Empty(t, inv.ProfessionalID)

		rec = app.run(t, httpTest{path: "/api/children/" + beto.ID, token: profToken})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	app.runTests(t, []httpTest{
		{
			name: "already answered", method: http.MethodPost, path: "/api/professional/invitations/" + anaInv.ID + "/reject",
			token: profToken, wantCode: http.StatusConflict, wantData: failure(t, invitation.ErrNotPending.Error()),
		},
		{
			name: "filter by status", path: "/api/professional/invitations?status=pending", token: profToken,
			wantData: success(t, []invitation.Invitation{}),
		},
	})

	t.Run("shared children", func(t *testing.T) {
		rec := app.run(t, httpTest{path: "/api/children", token: profToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var children []child.WithAge
		decodeData(t, rec, &children)
		require.Len(t, children, 1)
		assert.Equal(t, ana.ID, children[0].ID)
	})
}

func Test_invitationApi_revoke(t *testing.T) {
	app := setup(t)
	owner := testutil.CreateUser(t, app.usrRepo, "Maria", "mariasouza", "maria@test.local", "", []string{user.RoleCaregiver}, true)
	prof := testutil.CreateUser(t, app.usrRepo, "Prof", "profuser", "prof@test.local", "", []string{user.RoleProfessional}, true)
	ana := testutil.CreateChild(t, app.childRepo, owner.ID, "Ana", child.GenderFemale, testutil.BirthDateForAge(10))
	beto := testutil.CreateChild(t, app.childRepo, owner.ID, "Beto", child.GenderMale, testutil.BirthDateForAge(20))
	inv := testutil.CreateInvitation(t, app.invRepo, ana.ID, owner.ID, prof.Email, invitation.StatusApproved, prof.ID)

	ownerToken := getToken(t, app.conf, owner)
	profToken := getToken(t, app.conf, prof)

	app.runTests(t, []httpTest{
		{name: "shared", path: "/api/children/" + ana.ID, token: profToken},
		{
			name: "professional cannot revoke", method: http.MethodDelete, path: "/api/children/" + ana.ID + "/invitations/" + inv.ID,
			token: profToken, wantCode: http.StatusForbidden,
		},
		{
			name: "wrong child", method: http.MethodDelete, path: "/api/children/" + beto.ID + "/invitations/" + inv.ID,
			token: ownerToken, wantCode: http.StatusNotFound,
		},
		{
			name: "revoke", method: http.MethodDelete, path: "/api/children/" + ana.ID + "/invitations/" + inv.ID,
			token: ownerToken, wantData: marchallObj(t, Response{Success: true, Message: "invitation revoked"}),
		},
		{name: "access removed", path: "/api/children/" + ana.ID, token: profToken, wantCode: http.StatusNotFound},
		{
			name: "revoked", method: http.MethodDelete, path: "/api/children/" + ana.ID + "/invitations/" + inv.ID,
			token: ownerToken, wantCode: http.StatusNotFound,
		},
	})
}
