package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

type sessionRepository struct {
	db *sessionTable
}

var _ journey.SessionRepository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db.session}
}

func cloneSession(s journey.Session) journey.Session {
	s.Data.QuestionIDs = copyStrings(s.Data.QuestionIDs)
	if s.Data.Report != nil {
		r := *s.Data.Report
		s.Data.Report = &r
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	return s
}

func (repo *sessionRepository) sorted() []journey.Session {
	sessions := make([]journey.Session, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		sessions = append(sessions, cloneSession(*s))
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions
}

// openSession must be called with the lock held.
func (repo *sessionRepository) openSession(userID, childID string) (journey.Session, bool) {
	for _, s := range repo.sorted() {
		if s.UserID == userID && s.ChildID == childID && s.IsOpen() {
			return s, true
		}
	}
	return journey.Session{}, false
}

func (repo *sessionRepository) GetOpenSession(_ context.Context, userID, childID string) (journey.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.openSession(userID, childID); ok {
		return s, nil
	}
	return journey.Session{}, journey.ErrSessionNotFound
}

func (repo *sessionRepository) CreateSession(_ context.Context, s journey.Session) (journey.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s.IsOpen() {
		if _, exists := repo.openSession(s.UserID, s.ChildID); exists {
			return journey.Session{}, journey.ErrOpenSessionExists
		}
	}
	s.ID = uuid.New().String()
	s = cloneSession(s)
	repo.db.table[s.ID] = &s
	return cloneSession(s), nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (journey.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return cloneSession(*s), nil
	}
	return journey.Session{}, journey.ErrSessionNotFound
}

func (repo *sessionRepository) UpdateSession(_ context.Context, s journey.Session) (journey.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[s.ID]
	if !ok {
		return journey.Session{}, journey.ErrSessionNotFound
	}
	if !stored.IsOpen() {
		return journey.Session{}, journey.ErrSessionClosed
	}
	if s.IsOpen() {
		if open, exists := repo.openSession(s.UserID, s.ChildID); exists && open.ID != s.ID {
			return journey.Session{}, journey.ErrOpenSessionExists
		}
	}
	s = cloneSession(s)
	repo.db.table[s.ID] = &s
	return cloneSession(s), nil
}

func (repo *sessionRepository) QuerySessions(_ context.Context, filter journey.SessionFilter) ([]journey.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]journey.Session, 0)
	for _, s := range repo.sorted() {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.ChildID != "" && s.ChildID != filter.ChildID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, s.Status) {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func hasStatus(statuses []journey.SessionStatus, status journey.SessionStatus) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}

func (repo *sessionRepository) CreateResponse(_ context.Context, r journey.Response) (journey.Response, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.table[r.SessionID]
	if !ok {
		return journey.Response{}, journey.ErrSessionNotFound
	}
	if !s.IsOpen() {
		return journey.Response{}, journey.ErrSessionClosed
	}
	for _, existing := range repo.db.responses[r.SessionID] {
		if existing.QuestionID == r.QuestionID {
			return journey.Response{}, journey.ErrAlreadyAnswered
		}
	}
	r.ID = uuid.New().String()
	repo.db.responses[r.SessionID] = append(repo.db.responses[r.SessionID], r)
	return r, nil
}

func (repo *sessionRepository) QueryResponses(_ context.Context, sessionID string) ([]journey.Response, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	responses := make([]journey.Response, len(repo.db.responses[sessionID]))
	copy(responses, repo.db.responses[sessionID])
	return responses, nil
}
