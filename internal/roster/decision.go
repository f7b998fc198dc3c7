package roster

import "sort"

// SkipReason enumerates why a counted mentor produced no closure decision.
type SkipReason string

// Supported skip reasons.
const (
	SkipReasonRecordNotFound SkipReason = "record_not_found"
	SkipReasonInvalidHours   SkipReason = "invalid_hours"
)

// DecisionSkip captures a counted mentor that could not be evaluated.
type DecisionSkip struct {
	NormalizedIdentifier string
	Reason               SkipReason
}

// DecisionUnchanged captures a mentor evaluated below capacity or outside availability.
type DecisionUnchanged struct {
	NormalizedIdentifier string
	AppliedCount         int
	Hours                int
	MonthAvailable       bool
}

// DecisionSelection captures a mentor selected for capacity closure.
type DecisionSelection struct {
	DisplayName          string
	NormalizedIdentifier string
	AppliedCount         int
	Hours                int
}

// Decision is the worklist produced by evaluating application counts against the roster.
type Decision struct {
	Selected  []DecisionSelection
	Skipped   []DecisionSkip
	Unchanged []DecisionUnchanged
}

// SelectedDisplayNames lists the display names of selected mentors in decision order.
func (decision Decision) SelectedDisplayNames() []string {
	var displayNames []string
	for _, selection := range decision.Selected {
		displayNames = append(displayNames, selection.DisplayName)
	}
	return displayNames
}

// Decide evaluates per-mentor application counts against the indexed roster
// and selects mentors whose count meets or exceeds their hours while the
// target month is still listed in their availability. The evaluation is a
// pure filter: mentors without a matching record or with a non-integer hours
// field are skipped, never fatal. Counts are evaluated in sorted identifier
// order so reporting stays deterministic.
func Decide(countsByIdentifier map[string]int, monthNumber int, index IndexedRoster) Decision {
	sortedIdentifiers := make([]string, 0, len(countsByIdentifier))
	for normalizedIdentifier := range countsByIdentifier {
		sortedIdentifiers = append(sortedIdentifiers, normalizedIdentifier)
	}
	sort.Strings(sortedIdentifiers)

	decision := Decision{}
	for _, normalizedIdentifier := range sortedIdentifiers {
		appliedCount := countsByIdentifier[normalizedIdentifier]

		record, recordFound := index.Lookup(normalizedIdentifier)
		if !recordFound {
			decision.Skipped = append(decision.Skipped, DecisionSkip{NormalizedIdentifier: normalizedIdentifier, Reason: SkipReasonRecordNotFound})
			continue
		}

		hoursValue, hoursParsed := record.HoursValue()
		if !hoursParsed {
			decision.Skipped = append(decision.Skipped, DecisionSkip{NormalizedIdentifier: normalizedIdentifier, Reason: SkipReasonInvalidHours})
			continue
		}

		monthAvailable := containsMonth(record.AvailabilityMonths(), monthNumber)
		if appliedCount >= hoursValue && monthAvailable {
			decision.Selected = append(decision.Selected, DecisionSelection{
				DisplayName:          record.DisplayName(),
				NormalizedIdentifier: normalizedIdentifier,
				AppliedCount:         appliedCount,
				Hours:                hoursValue,
			})
			continue
		}

		decision.Unchanged = append(decision.Unchanged, DecisionUnchanged{
			NormalizedIdentifier: normalizedIdentifier,
			AppliedCount:         appliedCount,
			Hours:                hoursValue,
			MonthAvailable:       monthAvailable,
		})
	}

	return decision
}

func containsMonth(monthNumbers []int, monthNumber int) bool {
	for _, candidateMonth := range monthNumbers {
		if candidateMonth == monthNumber {
			return true
		}
	}
	return false
}
