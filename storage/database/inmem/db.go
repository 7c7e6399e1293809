package inmemdb

import (
	"strings"
	"sync"

	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
)

type (
	// DB is an in-memory store used in development (STORAGE=memory) & tests.
	DB struct {
		user       *userTable
		child      *childTable
		question   *questionTable
		session    *sessionTable
		report     *reportTable
		invitation *invitationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	childTable struct {
		sync.RWMutex
		table map[string]*child.Child
	}

	questionTable struct {
		sync.RWMutex
		table map[string]*journey.Question
	}

	// sessionTable holds sessions & their responses, under the same lock.
	sessionTable struct {
		sync.RWMutex
		table     map[string]*journey.Session
		responses map[string][]journey.Response // {session_id: responses}
	}

	reportTable struct {
		sync.RWMutex
		table map[string]*journey.Report // {session_id: report}
	}

	invitationTable struct {
		sync.RWMutex
		table map[string]*invitation.Invitation
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		child:      &childTable{table: make(map[string]*child.Child)},
		question:   &questionTable{table: make(map[string]*journey.Question)},
		session:    &sessionTable{table: make(map[string]*journey.Session), responses: make(map[string][]journey.Response)},
		report:     &reportTable{table: make(map[string]*journey.Report)},
		invitation: &invitationTable{table: make(map[string]*invitation.Invitation)},
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
