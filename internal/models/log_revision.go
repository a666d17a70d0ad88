package models

import (
	"encoding/json"
	"time"
)

type ChangeType string

const (
	ChangeAmendment     ChangeType = "AMENDMENT"
	ChangeCorrection    ChangeType = "CORRECTION"
	ChangeClarification ChangeType = "CLARIFICATION"
	ChangeStatusChange  ChangeType = "STATUS_CHANGE"
	ChangeEscalation    ChangeType = "ESCALATION"
)

// Amendable field names accepted by the revision ledger. Anything not in
// this list is rejected before a write happens.
const (
	FieldOccurrence       = "occurrence"
	FieldActionTaken      = "action_taken"
	FieldCallsignFrom     = "callsign_from"
	FieldCallsignTo       = "callsign_to"
	FieldIncidentType     = "incident_type"
	FieldPriority         = "priority"
	FieldLocation         = "location"
	FieldTimeOfOccurrence = "time_of_occurrence"
	FieldStatus           = "status"
)

// AmendableFields maps the accepted field names to their display labels.
var AmendableFields = map[string]string{
	FieldOccurrence:       "Occurrence",
	FieldActionTaken:      "Action Taken",
	FieldCallsignFrom:     "Callsign (From)",
	FieldCallsignTo:       "Callsign (To)",
	FieldIncidentType:     "Incident Type",
	FieldPriority:         "Priority",
	FieldLocation:         "Location",
	FieldTimeOfOccurrence: "Time of Occurrence",
	FieldStatus:           "Status",
}

// LogRevision is one atomic field-level amendment to an incident log.
// Rows are append-only: created once, never edited, never deleted. Old and
// new values are captured verbatim as JSON so the ledger stays opaque to
// the shape of what changed. The (log_id, revision_number) pair is unique
// so a numbering race is rejected by the database even if the locking
// path misbehaves.
type LogRevision struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	LogID          uint            `json:"logId" gorm:"not null;uniqueIndex:idx_log_revision"`
	Log            IncidentLog     `json:"-" gorm:"foreignKey:LogID"`
	RevisionNumber int             `json:"revisionNumber" gorm:"not null;uniqueIndex:idx_log_revision"`
	FieldChanged   string          `json:"fieldChanged" gorm:"not null"`
	OldValue       json.RawMessage `json:"oldValue" gorm:"type:jsonb"`
	NewValue       json.RawMessage `json:"newValue" gorm:"type:jsonb"`
	ChangeType     ChangeType      `json:"changeType" gorm:"not null"`
	ChangeReason   string          `json:"changeReason" gorm:"type:text;not null"`
	ChangedByID    uint            `json:"changedById" gorm:"not null"`
	ChangedBy      User            `json:"changedBy" gorm:"foreignKey:ChangedByID"`
	ChangedAt      time.Time       `json:"changedAt" gorm:"not null"`
}

func (LogRevision) TableName() string {
	return "log_revisions"
}
