package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/eventguard/backend/internal/models"
	"github.com/eventguard/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	store   *store.MemoryStore
	logs    *LogService
	perms   *PermissionService
	creator *models.User
	other   *models.User
	admin   *models.User
	clock   *time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	creator := &models.User{Email: "officer@eventguard.test", Password: "x", FirstName: "Dana", LastName: "Reyes", Role: models.RoleOfficer}
	other := &models.User{Email: "other@eventguard.test", Password: "x", FirstName: "Sam", LastName: "Okafor", Role: models.RoleOfficer}
	admin := &models.User{Email: "admin@eventguard.test", Password: "x", FirstName: "Ada", LastName: "Chen", Role: models.RoleAdmin}
	require.NoError(t, st.CreateUser(ctx, creator))
	require.NoError(t, st.CreateUser(ctx, other))
	require.NoError(t, st.CreateUser(ctx, admin))

	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	clock := &now
	tick := func() time.Time { return *clock }

	perms := NewPermissionService(st)
	perms.now = tick
	revisions := NewRevisionService(st)
	revisions.now = tick
	logs := NewLogService(st, perms, revisions)
	logs.now = tick

	return &ledgerFixture{store: st, logs: logs, perms: perms, creator: creator, other: other, admin: admin, clock: clock}
}

func (f *ledgerFixture) createLog(t *testing.T, input CreateLogInput, userID uint) *models.IncidentLog {
	t.Helper()
	result, err := f.logs.CreateLog(context.Background(), input, userID)
	require.NoError(t, err)
	return result.Log
}

func contemporaneousInput(at time.Time) CreateLogInput {
	return CreateLogInput{
		Occurrence:       "Unattended bag reported by steward at north concourse",
		ActionTaken:      "Area cordoned, bag owner located",
		IncidentType:     "SUSPICIOUS_ITEM",
		Priority:         models.PriorityHigh,
		Location:         "North concourse",
		CallsignFrom:     "SIERRA-2",
		CallsignTo:       "CONTROL",
		TimeOfOccurrence: at.Add(-5 * time.Minute),
		TimeLogged:       at,
		EntryType:        models.EntryContemporaneous,
	}
}

func TestCreateLogRetrospectiveRequiresJustification(t *testing.T) {
	f := newLedgerFixture(t)

	input := contemporaneousInput(*f.clock)
	input.EntryType = models.EntryRetrospective
	input.RetrospectiveJustification = "   "

	_, err := f.logs.CreateLog(context.Background(), input, f.creator.ID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "justification")

	// Nothing was persisted.
	logs, err := f.store.ListLogs(context.Background(), store.LogFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)

	// With a justification the same input succeeds.
	input.RetrospectiveJustification = "Radio failure during the incident; logged after handover"
	result, err := f.logs.CreateLog(context.Background(), input, f.creator.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Log.RetrospectiveJustification)
}

func TestCreateLogAttachesWarnings(t *testing.T) {
	f := newLedgerFixture(t)

	input := contemporaneousInput(*f.clock)
	input.TimeOfOccurrence = f.clock.Add(-90 * time.Minute)

	result, err := f.logs.CreateLog(context.Background(), input, f.creator.ID)
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 2)
	assert.False(t, result.Log.IsAmended)
	assert.NotEmpty(t, result.Log.LogNumber)
	assert.Equal(t, models.RoleOfficer, result.Log.LoggedByRole)
}

func TestAmendLogEndToEnd(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	created := *f.clock
	log := f.createLog(t, contemporaneousInput(created), f.creator.ID)
	newValue := json.RawMessage(`"Bag owner located and verified; stand-down issued"`)

	// A different non-admin user is denied.
	_, err := f.logs.AmendLog(ctx, log.ID, models.FieldOccurrence, newValue, "Adding verification detail", models.ChangeClarification, f.other.ID)
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "creator")

	// The creator amends at T+23h59m.
	*f.clock = created.Add(23*time.Hour + 59*time.Minute)
	rev, err := f.logs.AmendLog(ctx, log.ID, models.FieldOccurrence, newValue, "Adding verification detail", models.ChangeClarification, f.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rev.RevisionNumber)

	amended, err := f.logs.GetLog(ctx, log.ID)
	require.NoError(t, err)
	assert.True(t, amended.IsAmended)

	// The creator is outside the window at T+25h.
	*f.clock = created.Add(25 * time.Hour)
	_, err = f.logs.AmendLog(ctx, log.ID, models.FieldStatus, json.RawMessage(`"RESOLVED"`), "Closing after debrief review", models.ChangeStatusChange, f.creator.ID)
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "24 hours")

	// An admin is not.
	rev, err = f.logs.AmendLog(ctx, log.ID, models.FieldStatus, json.RawMessage(`"RESOLVED"`), "Closing after debrief review", models.ChangeStatusChange, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rev.RevisionNumber)
}

func TestAmendLogOriginalRecordUnchanged(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	log := f.createLog(t, contemporaneousInput(*f.clock), f.creator.ID)
	before, err := f.logs.GetLog(ctx, log.ID)
	require.NoError(t, err)

	_, err = f.logs.AmendLog(ctx, log.ID, models.FieldPriority, json.RawMessage(`"CRITICAL"`), "Escalated after supervisor review", models.ChangeEscalation, f.creator.ID)
	require.NoError(t, err)

	after, err := f.logs.GetLog(ctx, log.ID)
	require.NoError(t, err)

	// Identity and content fields of the original record never change.
	assert.Equal(t, before.LogNumber, after.LogNumber)
	assert.Equal(t, before.TimeOfOccurrence, after.TimeOfOccurrence)
	assert.Equal(t, before.TimeLogged, after.TimeLogged)
	assert.Equal(t, before.EntryType, after.EntryType)
	assert.Equal(t, before.LoggedByID, after.LoggedByID)
	assert.Equal(t, before.Priority, after.Priority)
	assert.Equal(t, before.Occurrence, after.Occurrence)
	assert.True(t, after.IsAmended)
}

func TestAmendLogRejectsUnknownField(t *testing.T) {
	f := newLedgerFixture(t)

	log := f.createLog(t, contemporaneousInput(*f.clock), f.creator.ID)

	_, err := f.logs.AmendLog(context.Background(), log.ID, "log_number", json.RawMessage(`"EG-X"`), "Trying to rewrite identity", models.ChangeAmendment, f.creator.ID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	revisions, err := f.logs.GetHistory(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Empty(t, revisions)
}

func TestAmendLogRejectsShortReason(t *testing.T) {
	f := newLedgerFixture(t)

	log := f.createLog(t, contemporaneousInput(*f.clock), f.creator.ID)

	_, err := f.logs.AmendLog(context.Background(), log.ID, models.FieldLocation, json.RawMessage(`"Gate 7"`), "  typo    ", models.ChangeCorrection, f.creator.ID)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "10")
}

func TestAmendLogOldValueFollowsLedger(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	log := f.createLog(t, contemporaneousInput(*f.clock), f.creator.ID)

	first, err := f.logs.AmendLog(ctx, log.ID, models.FieldLocation, json.RawMessage(`"Gate 7"`), "Corrected location after CCTV check", models.ChangeCorrection, f.creator.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `"North concourse"`, string(first.OldValue))

	second, err := f.logs.AmendLog(ctx, log.ID, models.FieldLocation, json.RawMessage(`"Gate 7, upper tier"`), "Narrowed down to the upper tier", models.ChangeClarification, f.creator.ID)
	require.NoError(t, err)

	// The second revision's old value is the first revision's new value,
	// so replaying the ledger reconstructs the field's history.
	assert.JSONEq(t, string(first.NewValue), string(second.OldValue))
	assert.Equal(t, 2, second.RevisionNumber)
}

func TestGetHistoryOrdersByRevisionNumber(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	log := f.createLog(t, contemporaneousInput(*f.clock), f.creator.ID)
	for i := 0; i < 4; i++ {
		*f.clock = f.clock.Add(time.Minute)
		_, err := f.logs.AmendLog(ctx, log.ID, models.FieldActionTaken, json.RawMessage(`"Updated action narrative"`), "Expanding the action narrative", models.ChangeAmendment, f.creator.ID)
		require.NoError(t, err)
	}

	revisions, err := f.logs.GetHistory(ctx, log.ID)
	require.NoError(t, err)
	require.Len(t, revisions, 4)
	for i, rev := range revisions {
		assert.Equal(t, i+1, rev.RevisionNumber)
	}
}
