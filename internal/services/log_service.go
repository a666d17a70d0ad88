package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eventguard/backend/internal/logger"
	"github.com/eventguard/backend/internal/models"
	"github.com/eventguard/backend/internal/store"
	"github.com/google/uuid"
)

type CreateLogInput struct {
	Occurrence                 string
	ActionTaken                string
	IncidentType               string
	Priority                   models.LogPriority
	Location                   string
	CallsignFrom               string
	CallsignTo                 string
	Status                     models.LogStatus
	Tags                       []string
	TimeOfOccurrence           time.Time
	TimeLogged                 time.Time
	EntryType                  models.EntryType
	RetrospectiveJustification string
}

type CreateLogResult struct {
	Log      *models.IncidentLog
	Warnings []string
}

// LogService creates immutable incident logs and orchestrates
// amendments. A log's content fields are written exactly once here;
// AmendLog is the only mutation path and it goes gate -> ledger, never
// touching the original row's content.
type LogService struct {
	store       store.Store
	permissions *PermissionService
	revisions   *RevisionService
	now         func() time.Time
}

func NewLogService(st store.Store, permissions *PermissionService, revisions *RevisionService) *LogService {
	return &LogService{
		store:       st,
		permissions: permissions,
		revisions:   revisions,
		now:         time.Now,
	}
}

// CreateLog persists a new incident log. A retrospective entry without a
// justification is rejected before anything is written. Timing warnings
// from the classifier ride along with the created record; they never
// block creation.
func (ls *LogService) CreateLog(ctx context.Context, input CreateLogInput, userID uint) (*CreateLogResult, error) {
	user, err := ls.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up logging user: %w", err)
	}

	switch input.EntryType {
	case models.EntryContemporaneous, models.EntryRetrospective:
	default:
		return nil, NewValidationError("unknown entry type %q", input.EntryType)
	}

	justification := strings.TrimSpace(input.RetrospectiveJustification)
	if input.EntryType == models.EntryRetrospective && justification == "" {
		return nil, NewValidationError("retrospective entries require a justification")
	}

	timeLogged := input.TimeLogged
	if timeLogged.IsZero() {
		timeLogged = ls.now()
	}
	timeLogged = timeLogged.UTC()

	validation := ValidateEntryTiming(input.TimeOfOccurrence, timeLogged, input.EntryType)

	status := input.Status
	if status == "" {
		status = models.LogStatusOpen
	}

	log := &models.IncidentLog{
		LogNumber:        newLogNumber(timeLogged),
		Occurrence:       input.Occurrence,
		ActionTaken:      input.ActionTaken,
		IncidentType:     input.IncidentType,
		Priority:         input.Priority,
		Location:         input.Location,
		CallsignFrom:     input.CallsignFrom,
		CallsignTo:       input.CallsignTo,
		Status:           status,
		Tags:             input.Tags,
		TimeOfOccurrence: input.TimeOfOccurrence.UTC(),
		TimeLogged:       timeLogged,
		EntryType:        input.EntryType,
		IsAmended:        false,
		LoggedByID:       user.ID,
		LoggedByRole:     user.Role,
		CreatedAt:        ls.now().UTC(),
	}
	if input.EntryType == models.EntryRetrospective {
		log.RetrospectiveJustification = &justification
	}

	if err := ls.store.CreateLog(ctx, log); err != nil {
		logger.WithError(err, "log_service").Error("Failed to create incident log")
		return nil, err
	}

	logger.WithLog(log.ID, log.LogNumber).Info("Incident log created", map[string]interface{}{
		"entry_type": log.EntryType,
		"logged_by":  log.LoggedByID,
		"warnings":   len(validation.Warnings),
	})

	return &CreateLogResult{Log: log, Warnings: validation.Warnings}, nil
}

func (ls *LogService) GetLog(ctx context.Context, logID uint) (*models.IncidentLog, error) {
	return ls.store.GetLog(ctx, logID)
}

func (ls *LogService) ListLogs(ctx context.Context, filter store.LogFilter) ([]models.IncidentLog, error) {
	return ls.store.ListLogs(ctx, filter)
}

// CanAmend exposes the gate decision without performing an amendment.
func (ls *LogService) CanAmend(ctx context.Context, logID, userID uint) (AmendDecision, error) {
	return ls.permissions.CanAmend(ctx, logID, userID)
}

// AmendLog checks the gate and appends one revision. The gate runs on
// every call; a prior positive decision is never reused. The store
// captures the field's prior value and assigns the revision number under
// its own lock, so this path stays race-free without holding any state
// across calls.
func (ls *LogService) AmendLog(ctx context.Context, logID uint, fieldChanged string, newValue json.RawMessage, reason string, changeType models.ChangeType, userID uint) (*models.LogRevision, error) {
	decision, err := ls.permissions.CanAmend(ctx, logID, userID)
	if err != nil {
		return nil, err
	}
	if !decision.CanAmend {
		return nil, &AuthorizationError{Reason: decision.Reason}
	}

	return ls.revisions.Append(ctx, AppendRevisionInput{
		LogID:        logID,
		FieldChanged: fieldChanged,
		NewValue:     newValue,
		ChangeType:   changeType,
		Reason:       reason,
		ActorID:      userID,
	})
}

// GetHistory returns a log's revisions in ascending revision order.
func (ls *LogService) GetHistory(ctx context.Context, logID uint) ([]models.LogRevision, error) {
	if _, err := ls.store.GetLog(ctx, logID); err != nil {
		return nil, err
	}
	return ls.store.ListRevisions(ctx, logID)
}

// ExportHistory renders the full auditable trail as plain text.
func (ls *LogService) ExportHistory(ctx context.Context, logID uint) (string, error) {
	log, err := ls.store.GetLog(ctx, logID)
	if err != nil {
		return "", err
	}
	revisions, err := ls.store.ListRevisions(ctx, logID)
	if err != nil {
		return "", err
	}
	return ExportText(log, revisions, ls.now()), nil
}

func newLogNumber(timeLogged time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("EG-%s-%s", timeLogged.UTC().Format("20060102"), suffix)
}
