package models

import (
	"time"

	"github.com/lib/pq"
)

type EntryType string
type LogStatus string
type LogPriority string

const (
	EntryContemporaneous EntryType = "CONTEMPORANEOUS"
	EntryRetrospective   EntryType = "RETROSPECTIVE"
)

const (
	LogStatusOpen     LogStatus = "OPEN"
	LogStatusOngoing  LogStatus = "ONGOING"
	LogStatusResolved LogStatus = "RESOLVED"
	LogStatusClosed   LogStatus = "CLOSED"
)

const (
	PriorityLow      LogPriority = "LOW"
	PriorityMedium   LogPriority = "MEDIUM"
	PriorityHigh     LogPriority = "HIGH"
	PriorityCritical LogPriority = "CRITICAL"
)

// IncidentLog is a single logged incident. Once created, its content is
// immutable: every later change goes through a LogRevision, and the
// original row keeps its values as entered. There is no update or delete
// path for this table outside of the is_amended flag, which the store
// flips together with the first revision.
type IncidentLog struct {
	ID                         uint           `json:"id" gorm:"primaryKey"`
	LogNumber                  string         `json:"logNumber" gorm:"uniqueIndex;not null"`
	Occurrence                 string         `json:"occurrence" gorm:"type:text;not null"`
	ActionTaken                string         `json:"actionTaken" gorm:"type:text"`
	IncidentType               string         `json:"incidentType" gorm:"not null"`
	Priority                   LogPriority    `json:"priority" gorm:"not null"`
	Location                   string         `json:"location"`
	CallsignFrom               string         `json:"callsignFrom"`
	CallsignTo                 string         `json:"callsignTo"`
	Status                     LogStatus      `json:"status" gorm:"not null;default:'OPEN'"`
	Tags                       pq.StringArray `json:"tags" gorm:"type:text[]"`
	TimeOfOccurrence           time.Time      `json:"timeOfOccurrence" gorm:"not null"`
	TimeLogged                 time.Time      `json:"timeLogged" gorm:"not null"`
	EntryType                  EntryType      `json:"entryType" gorm:"not null"`
	RetrospectiveJustification *string        `json:"retrospectiveJustification" gorm:"type:text"`
	IsAmended                  bool           `json:"isAmended" gorm:"not null;default:false"`
	LoggedByID                 uint           `json:"loggedById" gorm:"not null"`
	LoggedBy                   User           `json:"loggedBy" gorm:"foreignKey:LoggedByID"`
	LoggedByRole               UserRole       `json:"loggedByRole" gorm:"not null"`
	CreatedAt                  time.Time      `json:"createdAt"`
}

func (IncidentLog) TableName() string {
	return "incident_logs"
}
