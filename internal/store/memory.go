package store

import (
	"context"
	"sync"

	"github.com/eventguard/backend/internal/models"
)

// MemoryStore is an in-memory Store used by tests. One mutex guards all
// state, so AppendRevision's count-then-insert is atomic the same way the
// GormStore transaction is.
type MemoryStore struct {
	mu        sync.Mutex
	logs      map[uint]*models.IncidentLog
	revisions map[uint][]models.LogRevision
	users     map[uint]*models.User
	nextLogID uint
	nextRevID uint
	nextUser  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs:      make(map[uint]*models.IncidentLog),
		revisions: make(map[uint][]models.LogRevision),
		users:     make(map[uint]*models.User),
		nextLogID: 1,
		nextRevID: 1,
		nextUser:  1,
	}
}

func (s *MemoryStore) CreateLog(_ context.Context, log *models.IncidentLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.logs {
		if existing.LogNumber == log.LogNumber {
			return ErrConflict
		}
	}

	log.ID = s.nextLogID
	s.nextLogID++
	if user, ok := s.users[log.LoggedByID]; ok {
		log.LoggedBy = *user
	}

	stored := *log
	s.logs[log.ID] = &stored
	return nil
}

func (s *MemoryStore) GetLog(_ context.Context, id uint) (*models.IncidentLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *log
	return &out, nil
}

func (s *MemoryStore) ListLogs(_ context.Context, filter LogFilter) ([]models.IncidentLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []models.IncidentLog
	for id := uint(1); id < s.nextLogID; id++ {
		log, ok := s.logs[id]
		if !ok {
			continue
		}
		if filter.Status != "" && string(log.Status) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(log.Priority) != filter.Priority {
			continue
		}
		if filter.EntryType != "" && string(log.EntryType) != filter.EntryType {
			continue
		}
		logs = append(logs, *log)
		if filter.Limit > 0 && len(logs) == filter.Limit {
			break
		}
	}
	return logs, nil
}

func (s *MemoryStore) AppendRevision(_ context.Context, rev *models.LogRevision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[rev.LogID]
	if !ok {
		return ErrNotFound
	}

	rev.ID = s.nextRevID
	s.nextRevID++
	history := s.revisions[rev.LogID]
	rev.RevisionNumber = len(history) + 1
	rev.OldValue = models.EffectiveFieldValue(log, history, rev.FieldChanged)
	if user, ok := s.users[rev.ChangedByID]; ok {
		rev.ChangedBy = *user
	}

	s.revisions[rev.LogID] = append(s.revisions[rev.LogID], *rev)
	log.IsAmended = true
	return nil
}

func (s *MemoryStore) ListRevisions(_ context.Context, logID uint) ([]models.LogRevision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revisions := make([]models.LogRevision, len(s.revisions[logID]))
	copy(revisions, s.revisions[logID])
	return revisions, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrConflict
		}
	}

	user.ID = s.nextUser
	s.nextUser++

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	for id := uint(1); id < s.nextUser; id++ {
		if user, ok := s.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}
