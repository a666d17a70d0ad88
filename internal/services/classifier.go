package services

import (
	"fmt"
	"math"
	"time"

	"github.com/eventguard/backend/internal/models"
)

const (
	// Minutes after which a contemporaneous entry is suspect.
	contemporaneousWindowMinutes = 15
	// Minutes after which the delay itself is flagged, whatever the type.
	criticalDeltaMinutes = 60
	// Retrospective entries older than this need strong justification.
	retrospectiveReviewMinutes = 24 * 60
)

// EntryValidation is the outcome of classifying an entry's timing.
// Classification never blocks a creation; it only surfaces audit risk,
// so IsValid is always true and the warnings are advisory.
type EntryValidation struct {
	IsValid            bool              `json:"isValid"`
	Warnings           []string          `json:"warnings"`
	SuggestedEntryType *models.EntryType `json:"suggestedEntryType,omitempty"`
	TimeDeltaMinutes   int               `json:"timeDeltaMinutes"`
}

// ValidateEntryTiming compares when an incident happened against when it
// was entered and classifies the gap. A negative delta means the
// occurrence is in the future relative to logging, which points at a
// clock or input error upstream; it is flagged, never corrected.
func ValidateEntryTiming(timeOfOccurrence, timeLogged time.Time, declared models.EntryType) EntryValidation {
	delta := int(math.Floor(timeLogged.Sub(timeOfOccurrence).Minutes()))

	result := EntryValidation{
		IsValid:          true,
		Warnings:         []string{},
		TimeDeltaMinutes: delta,
	}

	if delta < 0 {
		result.Warnings = append(result.Warnings,
			"Time of occurrence is later than the time logged; check for a clock or input error")
		return result
	}

	if delta > contemporaneousWindowMinutes && declared == models.EntryContemporaneous {
		suggested := models.EntryRetrospective
		result.SuggestedEntryType = &suggested
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Entry logged %d minutes after occurrence; consider classifying it as retrospective", delta))
	}

	if delta > criticalDeltaMinutes {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Critical time delta: entry logged %d minutes after occurrence", delta))
	}

	if declared == models.EntryRetrospective && delta > retrospectiveReviewMinutes {
		result.Warnings = append(result.Warnings,
			"Retrospective entry delayed more than 24 hours; a strong justification is expected")
	}

	return result
}
