package models

import (
	"encoding/json"
	"time"
)

// EffectiveFieldValue is what an amendable field reads as right now: the
// newest committed revision of that field wins, otherwise the as-created
// value. The original row is never rewritten, so replaying the ledger is
// the only way to know the current value. Stores call this inside their
// atomic append so a revision's old value is captured under the same
// lock that assigns its number.
func EffectiveFieldValue(log *IncidentLog, history []LogRevision, field string) json.RawMessage {
	value := originalFieldValue(log, field)
	for _, rev := range history {
		if rev.FieldChanged == field {
			value = rev.NewValue
		}
	}
	return value
}

// originalFieldValue captures the as-created value of an amendable field
// as JSON so the ledger stores it verbatim. Unknown names return nil;
// the ledger rejects them before any write.
func originalFieldValue(log *IncidentLog, field string) json.RawMessage {
	switch field {
	case FieldOccurrence:
		return jsonValue(log.Occurrence)
	case FieldActionTaken:
		return jsonValue(log.ActionTaken)
	case FieldCallsignFrom:
		return jsonValue(log.CallsignFrom)
	case FieldCallsignTo:
		return jsonValue(log.CallsignTo)
	case FieldIncidentType:
		return jsonValue(log.IncidentType)
	case FieldPriority:
		return jsonValue(string(log.Priority))
	case FieldLocation:
		return jsonValue(log.Location)
	case FieldTimeOfOccurrence:
		return jsonValue(log.TimeOfOccurrence.UTC().Format(time.RFC3339))
	case FieldStatus:
		return jsonValue(string(log.Status))
	default:
		return nil
	}
}

func jsonValue(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
