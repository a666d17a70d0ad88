package store

import (
	"context"
	"errors"

	"github.com/eventguard/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// appendRetries bounds the unique-constraint retry loop in AppendRevision.
// The row lock makes collisions rare; the constraint on
// (log_id, revision_number) is the backstop.
const appendRetries = 3

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateLog(ctx context.Context, log *models.IncidentLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return s.db.WithContext(ctx).Preload("LoggedBy").First(log, log.ID).Error
}

func (s *GormStore) GetLog(ctx context.Context, id uint) (*models.IncidentLog, error) {
	var log models.IncidentLog
	if err := s.db.WithContext(ctx).Preload("LoggedBy").First(&log, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

func (s *GormStore) ListLogs(ctx context.Context, filter LogFilter) ([]models.IncidentLog, error) {
	query := s.db.WithContext(ctx).Preload("LoggedBy")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.EntryType != "" {
		query = query.Where("entry_type = ?", filter.EntryType)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var logs []models.IncidentLog
	if err := query.Order("time_logged desc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// AppendRevision inserts one revision inside a transaction that locks the
// parent log row, so the count-then-insert numbering cannot race. The old
// value is captured from the ledger under the same lock, so two
// concurrent amendments of one field cannot both record the same prior
// state. If the unique index still reports a duplicate number, the
// transaction is retried from scratch rather than skipping the append.
func (s *GormStore) AppendRevision(ctx context.Context, rev *models.LogRevision) error {
	var lastErr error

	for attempt := 0; attempt < appendRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var log models.IncidentLog
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&log, rev.LogID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}

			var history []models.LogRevision
			if err := tx.Where("log_id = ?", rev.LogID).Order("revision_number asc").Find(&history).Error; err != nil {
				return err
			}
			rev.RevisionNumber = len(history) + 1
			rev.OldValue = models.EffectiveFieldValue(&log, history, rev.FieldChanged)

			if err := tx.Create(rev).Error; err != nil {
				return err
			}

			// Same transaction as the insert, so a reader never sees a
			// revision without is_amended set.
			if !log.IsAmended {
				if err := tx.Model(&models.IncidentLog{}).Where("id = ?", log.ID).Update("is_amended", true).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			return s.db.WithContext(ctx).Preload("ChangedBy").First(rev, rev.ID).Error
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			rev.ID = 0
			lastErr = ErrConflict
			continue
		}
		return err
	}
	return lastErr
}

func (s *GormStore) ListRevisions(ctx context.Context, logID uint) ([]models.LogRevision, error) {
	var revisions []models.LogRevision
	err := s.db.WithContext(ctx).
		Preload("ChangedBy").
		Where("log_id = ?", logID).
		Order("revision_number asc").
		Find(&revisions).Error
	if err != nil {
		return nil, err
	}
	return revisions, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
