package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
	logsvc "github.com/jhsobrinho/educareapp-sub009/services/logger"
	inmemdb "github.com/jhsobrinho/educareapp-sub009/storage/database/inmem"
	testutil "github.com/jhsobrinho/educareapp-sub009/tests"
)

var (
	usrRepo      user.Repository
	questionRepo journey.QuestionRepository
)

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	questionRepo = inmemdb.NewQuestionRepository(db)
	validate, _ := testutil.NewValidator()

	// start CLI
	return &commandLine{
		usrRepo:  usrRepo,
		bank:     journey.NewBank(questionRepo, nil, logsvc.NewDiscardLogger()),
		validate: validate,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkRunErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		tt := tt
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-username", "root", "-role", "lol"}, extra: "Educ@re-2024", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "root"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		tt := tt
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, tt, cli.run(args))
		})
	}

	mockPassword("Educ@re-2024")
	require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "Root", "-email", "ROOT@test.local"}))
	usr, err := usrRepo.GetUser(ctx, user.GetFilter{Username: "root"})
	require.NoError(t, err)
	assert.Equal(t, "root@test.local", usr.Email)
	assert.Equal(t, "root", usr.Name)
	assert.Equal(t, []string{user.RoleAdmin}, usr.Roles)
	assert.True(t, usr.Active())
	assert.NoError(t, usr.CheckPassword("Educ@re-2024"))

	t.Run("update existing user", func(t *testing.T) {
		mockPassword("N3w-Passw0rd")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", "root@test.local", "-name", "Dr. Root", "-role", "professional"}))
		updated, err := usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.Equal(t, "Dr. Root", updated.Name)
		assert.Equal(t, "root", updated.Username)
		assert.Equal(t, []string{user.RoleProfessional}, updated.Roles)
		assert.NoError(t, updated.CheckPassword("N3w-Passw0rd"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", "AWE@test.cd"}, extra: "lmao"},
	}
	for _, tt := range tests {
		tt := tt
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkRunErr(t, tt, err)
			if err != nil {
				return
			}
			refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
				t.Error("failed to update new password")
			}
			assert.NoError(t, refreshedUsr.CheckPassword(pwd))
		})
	}
}

func Test_commandLine_seedQuestions(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	t.Run("embedded bank", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "seedquestions"}))
		questions, err := questionRepo.QueryQuestions(ctx, journey.QuestionFilter{})
		require.NoError(t, err)
		assert.NotEmpty(t, questions)

		// seeding is idempotent
		require.NoError(t, cli.run([]string{"admin", "seedquestions"}))
		again, err := questionRepo.QueryQuestions(ctx, journey.QuestionFilter{})
		require.NoError(t, err)
		assert.Len(t, again, len(questions))
	})

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("custom file", func(t *testing.T) {
		path := write("custom.yaml", `questions:
  - code: custom-1
    dimension: linguagem
    text: "{childName} fala mamãe?"
    min_months: 10
    max_months: 12
    tips_yes:
      - Converse bastante com {childName}.
`)
		require.NoError(t, cli.run([]string{"admin", "seedquestions", "-file", path}))
		questions, err := questionRepo.QueryQuestions(ctx, journey.QuestionFilter{Codes: []string{"custom-1"}})
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, journey.DimensionLanguage, questions[0].Dimension)
		assert.True(t, questions[0].IsActive)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := write("invalid.yaml", `questions:
  - code: bad
    dimension: lol
    text: "?"
`)
		assert.Error(t, cli.run([]string{"admin", "seedquestions", "-file", path}))
		assert.Error(t, cli.run([]string{"admin", "seedquestions", "-file", filepath.Join(dir, "missing.yaml")}))
	})
}
