package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/eventguard/backend/internal/logger"
	"github.com/eventguard/backend/internal/models"
	"github.com/eventguard/backend/internal/store"
)

const minReasonLength = 10

var changeTypes = map[models.ChangeType]bool{
	models.ChangeAmendment:     true,
	models.ChangeCorrection:    true,
	models.ChangeClarification: true,
	models.ChangeStatusChange:  true,
	models.ChangeEscalation:    true,
}

type AppendRevisionInput struct {
	LogID        uint
	FieldChanged string
	NewValue     json.RawMessage
	ChangeType   models.ChangeType
	Reason       string
	ActorID      uint
}

// RevisionService is the append-only ledger of amendments. It validates
// the field name and reason before anything is written; numbering,
// old-value capture, and the is_amended side effect are handled
// atomically by the store.
type RevisionService struct {
	store store.Store
	now   func() time.Time
}

func NewRevisionService(st store.Store) *RevisionService {
	return &RevisionService{
		store: st,
		now:   time.Now,
	}
}

func (rs *RevisionService) Append(ctx context.Context, input AppendRevisionInput) (*models.LogRevision, error) {
	if _, ok := models.AmendableFields[input.FieldChanged]; !ok {
		return nil, NewValidationError("field %q cannot be amended", input.FieldChanged)
	}
	if len(strings.TrimSpace(input.Reason)) < minReasonLength {
		return nil, NewValidationError("a change reason of at least %d characters is required", minReasonLength)
	}
	if !changeTypes[input.ChangeType] {
		return nil, NewValidationError("unknown change type %q", input.ChangeType)
	}

	revision := &models.LogRevision{
		LogID:        input.LogID,
		FieldChanged: input.FieldChanged,
		NewValue:     input.NewValue,
		ChangeType:   input.ChangeType,
		ChangeReason: strings.TrimSpace(input.Reason),
		ChangedByID:  input.ActorID,
		ChangedAt:    rs.now().UTC(),
	}

	if err := rs.store.AppendRevision(ctx, revision); err != nil {
		logger.WithError(err, "revision_service").Error("Failed to append revision")
		return nil, err
	}

	logger.WithRevision(revision.LogID, revision.RevisionNumber).Info("Revision appended", map[string]interface{}{
		"field":       revision.FieldChanged,
		"change_type": revision.ChangeType,
		"changed_by":  revision.ChangedByID,
	})
	return revision, nil
}
