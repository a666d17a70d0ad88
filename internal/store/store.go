package store

import (
	"context"
	"errors"

	"github.com/eventguard/backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("conflict")
)

// LogFilter narrows ListLogs results. Zero values mean "no filter".
type LogFilter struct {
	Status    string
	Priority  string
	EntryType string
	Limit     int
}

// Store is the persistence port for the incident ledger. Services only
// talk to this interface; GormStore backs it in production and
// MemoryStore backs it in tests.
//
// AppendRevision owns revision numbering and old-value capture: it
// assigns RevisionNumber as 1 + the count of committed revisions for the
// log, sets OldValue from the committed ledger state
// (models.EffectiveFieldValue), and flips the log's is_amended flag, all
// atomically with the insert. Two concurrent appends for one log must
// never commit the same number, and revision N's old value must equal
// revision N-1's new value when both touch the same field.
type Store interface {
	CreateLog(ctx context.Context, log *models.IncidentLog) error
	GetLog(ctx context.Context, id uint) (*models.IncidentLog, error)
	ListLogs(ctx context.Context, filter LogFilter) ([]models.IncidentLog, error)

	AppendRevision(ctx context.Context, rev *models.LogRevision) error
	ListRevisions(ctx context.Context, logID uint) ([]models.LogRevision, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}
