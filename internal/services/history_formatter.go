package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eventguard/backend/internal/models"
)

const displayTimeFormat = "2006-01-02 15:04:05 MST"

// RevisionDiff is one amendment rendered for display: field label and
// both values stringified, plus attribution.
type RevisionDiff struct {
	Field      string            `json:"field"`
	OldValue   string            `json:"oldValue"`
	NewValue   string            `json:"newValue"`
	ChangedBy  string            `json:"changedBy"`
	ChangedAt  time.Time         `json:"changedAt"`
	Reason     string            `json:"reason"`
	ChangeType models.ChangeType `json:"changeType"`
}

// RevisionSummary aggregates a log's amendment trail.
type RevisionSummary struct {
	TotalRevisions    int                 `json:"totalRevisions"`
	LastAmendedAt     *time.Time          `json:"lastAmendedAt,omitempty"`
	LastAmendedBy     string              `json:"lastAmendedBy,omitempty"`
	ChangeTypes       []models.ChangeType `json:"changeTypes"`
	HasCorrections    bool                `json:"hasCorrections"`
	HasClarifications bool                `json:"hasClarifications"`
}

// FormatDiff renders one revision for display. Field names go through
// the display-label table; an unknown name falls back to the raw field
// name, though the ledger's validation should make that unreachable.
func FormatDiff(rev models.LogRevision) RevisionDiff {
	label, ok := models.AmendableFields[rev.FieldChanged]
	if !ok {
		label = rev.FieldChanged
	}

	return RevisionDiff{
		Field:      label,
		OldValue:   FormatValue(rev.OldValue),
		NewValue:   FormatValue(rev.NewValue),
		ChangedBy:  displayName(rev.ChangedBy, rev.ChangedByID),
		ChangedAt:  rev.ChangedAt,
		Reason:     rev.ChangeReason,
		ChangeType: rev.ChangeType,
	}
}

// FormatValue stringifies a captured revision value. Null or absent
// values read as "(empty)", structured values are pretty-printed, and
// everything else converts directly.
func FormatValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "(empty)"
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return string(raw)
	}

	switch v := value.(type) {
	case nil:
		return "(empty)"
	case string:
		return v
	case map[string]interface{}, []interface{}:
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return string(raw)
		}
		return string(pretty)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Summarize aggregates a revision list. An empty list yields zero counts
// and no flags.
func Summarize(revisions []models.LogRevision) RevisionSummary {
	summary := RevisionSummary{
		ChangeTypes: []models.ChangeType{},
	}

	seen := make(map[models.ChangeType]bool)
	var last *models.LogRevision

	for i := range revisions {
		rev := &revisions[i]
		summary.TotalRevisions++

		if !seen[rev.ChangeType] {
			seen[rev.ChangeType] = true
			summary.ChangeTypes = append(summary.ChangeTypes, rev.ChangeType)
		}
		if rev.ChangeType == models.ChangeCorrection {
			summary.HasCorrections = true
		}
		if rev.ChangeType == models.ChangeClarification {
			summary.HasClarifications = true
		}
		if last == nil || rev.RevisionNumber > last.RevisionNumber {
			last = rev
		}
	}

	if last != nil {
		at := last.ChangedAt
		summary.LastAmendedAt = &at
		summary.LastAmendedBy = displayName(last.ChangedBy, last.ChangedByID)
	}
	return summary
}

// ExportText renders the canonical plain-text audit document: header,
// identity and timing block, the original narrative, then one block per
// revision in ascending order, then an immutability trailer. Output is
// stable for the same inputs apart from the generation timestamp.
func ExportText(log *models.IncidentLog, revisions []models.LogRevision, generatedAt time.Time) string {
	ordered := make([]models.LogRevision, len(revisions))
	copy(ordered, revisions)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].RevisionNumber < ordered[j].RevisionNumber
	})

	var b strings.Builder
	rule := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	b.WriteString(rule + "\n")
	b.WriteString("INCIDENT LOG AUDIT EXPORT\n")
	b.WriteString(rule + "\n\n")

	b.WriteString(fmt.Sprintf("Log Number:    %s\n", log.LogNumber))
	b.WriteString(fmt.Sprintf("Incident Type: %s\n", log.IncidentType))
	b.WriteString(fmt.Sprintf("Priority:      %s\n", log.Priority))
	b.WriteString(fmt.Sprintf("Status:        %s\n", log.Status))
	if log.Location != "" {
		b.WriteString(fmt.Sprintf("Location:      %s\n", log.Location))
	}
	if log.CallsignFrom != "" || log.CallsignTo != "" {
		b.WriteString(fmt.Sprintf("Callsigns:     %s -> %s\n", log.CallsignFrom, log.CallsignTo))
	}
	b.WriteString(fmt.Sprintf("Logged By:     %s (%s)\n", displayName(log.LoggedBy, log.LoggedByID), log.LoggedByRole))
	b.WriteString(fmt.Sprintf("Occurred:      %s\n", log.TimeOfOccurrence.UTC().Format(displayTimeFormat)))
	b.WriteString(fmt.Sprintf("Logged:        %s\n", log.TimeLogged.UTC().Format(displayTimeFormat)))
	b.WriteString(fmt.Sprintf("Entry Type:    %s\n", log.EntryType))
	if log.RetrospectiveJustification != nil && *log.RetrospectiveJustification != "" {
		b.WriteString("Retrospective Justification:\n")
		b.WriteString(indent(*log.RetrospectiveJustification) + "\n")
	}

	b.WriteString("\nOccurrence:\n")
	b.WriteString(indent(log.Occurrence) + "\n")
	if log.ActionTaken != "" {
		b.WriteString("Action Taken:\n")
		b.WriteString(indent(log.ActionTaken) + "\n")
	}

	b.WriteString("\n" + thin + "\n")
	b.WriteString("AMENDMENT HISTORY\n")
	b.WriteString(thin + "\n")

	if len(ordered) == 0 {
		b.WriteString("No amendments have been made.\n")
	} else {
		for _, rev := range ordered {
			diff := FormatDiff(rev)
			b.WriteString(fmt.Sprintf("\nRevision %d of %d\n", rev.RevisionNumber, len(ordered)))
			b.WriteString(fmt.Sprintf("  Field:       %s\n", diff.Field))
			b.WriteString(fmt.Sprintf("  Old Value:   %s\n", diff.OldValue))
			b.WriteString(fmt.Sprintf("  New Value:   %s\n", diff.NewValue))
			b.WriteString(fmt.Sprintf("  Change Type: %s\n", diff.ChangeType))
			b.WriteString(fmt.Sprintf("  Reason:      %s\n", diff.Reason))
			b.WriteString(fmt.Sprintf("  Changed By:  %s\n", diff.ChangedBy))
			b.WriteString(fmt.Sprintf("  Changed At:  %s\n", diff.ChangedAt.UTC().Format(displayTimeFormat)))
		}
	}

	b.WriteString("\n" + thin + "\n")
	b.WriteString("This document was generated from an append-only revision ledger.\n")
	b.WriteString("The original entry is immutable; amendments never overwrite it.\n")
	b.WriteString(fmt.Sprintf("Generated at: %s\n", generatedAt.UTC().Format(displayTimeFormat)))

	return b.String()
}

func displayName(user models.User, fallbackID uint) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return fmt.Sprintf("user #%d", fallbackID)
	}
	return name
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
