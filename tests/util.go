package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
	"github.com/jhsobrinho/educareapp-sub009/storage/database"
)

// NewValidator returns a validator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	child.InitValidators(validate, translator)
	journey.InitValidators(validate, translator)
	return validate, translator
}

// migrationsLock serializes the migrations of the test packages, which run in parallel.
const migrationsLock = 4242

// PrepareDB opens & migrates the test database; the test is skipped when TEST_DATABASE_URL is not set.
// The database is shared: tests create their own rows (see UniqueName) and never truncate tables.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("database.OpenURL() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("db.Conn() failed: %v", err)
	}
	defer func() { _ = conn.Close() }()
	if _, err = conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationsLock); err != nil {
		t.Fatalf("locking migrations failed: %v", err)
	}
	defer func() { _, _ = conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, migrationsLock) }()

	if err = database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate() failed: %v", err)
	}
	return db
}

// UniqueName suffixes prefix so that rows of concurrent tests never collide.
func UniqueName(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateChild(t *testing.T, repo child.Repository, ownerID, firstName, gender string, birthDate time.Time) child.Child {
	t.Helper()
	now := time.Now().UTC()
	c, err := repo.CreateChild(context.Background(), child.Child{
		UserID:    ownerID,
		FirstName: firstName,
		LastName:  "Silva",
		BirthDate: birthDate.UTC(),
		Gender:    gender,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createChild() failed: %v", err)
	}
	return c
}

// BirthDateForAge returns the birth date of a child who is ageMonths old today.
func BirthDateForAge(ageMonths int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -ageMonths, 0)
}

func CreateQuestion(t *testing.T, repo journey.QuestionRepository, code string, dim journey.Dimension, min, max, order int) journey.Question {
	t.Helper()
	now := time.Now().UTC()
	q, err := repo.CreateQuestion(context.Background(), journey.Question{
		Code:        code,
		Dimension:   dim,
		Text:        "{childName} consegue fazer " + code + "?",
		MinMonths:   min,
		MaxMonths:   max,
		OrderIndex:  order,
		IsActive:    true,
		FeedbackYes: "Parabéns, {childName}!",
		TipsYes:     []string{"Brinque de " + code + " com {childName}."},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("createQuestion() failed: %v", err)
	}
	return q
}

// CreateInvitation creates an invitation; professionalID is only kept for approved invitations.
func CreateInvitation(
	t *testing.T,
	repo invitation.Repository,
	childID, invitedBy, email string,
	status invitation.Status,
	professionalID string,
) invitation.Invitation {
	t.Helper()
	now := time.Now().UTC()
	inv := invitation.Invitation{
		ChildID:   childID,
		InvitedBy: invitedBy,
		Email:     email,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status != invitation.StatusPending {
		inv.RespondedAt = &now
	}
	if status == invitation.StatusApproved {
		inv.ProfessionalID = professionalID
	}
	inv, err := repo.CreateInvitation(context.Background(), inv)
	if err != nil {
		t.Fatalf("createInvitation() failed: %v", err)
	}
	return inv
}
