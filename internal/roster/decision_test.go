package roster_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wcc-tools/mentorsync/internal/roster"
)

const decisionRosterDocumentConstant = "- name: Ada L.\n" +
	"  hours: 2\n" +
	"  availability: [9, 10]\n" +
	"- name: Grace H.\n" +
	"  hours: 5\n" +
	"  availability: [9]\n" +
	"- name: Zoë M.\n" +
	"  hours: 1\n" +
	"  availability: [10, 11]\n" +
	"- name: Mary J.\n" +
	"  hours: busy\n" +
	"  availability: [9]\n"

func buildDecisionIndex(testInstance *testing.T) roster.IndexedRoster {
	testInstance.Helper()
	parsedRecords, parseError := roster.ParseDocument([]byte(decisionRosterDocumentConstant))
	require.NoError(testInstance, parseError)
	index, collisions := roster.BuildIndex(parsedRecords)
	require.Empty(testInstance, collisions)
	return index
}

func TestDecideSelectsOnlyExhaustedAvailableMentors(testInstance *testing.T) {
	index := buildDecisionIndex(testInstance)

	testCases := []struct {
		name               string
		countsByIdentifier map[string]int
		monthNumber        int
		expectedSelected   []string
		expectedSkipped    []roster.DecisionSkip
		expectedUnchanged  int
	}{
		{
			name:               "count_meets_hours_and_month_available",
			countsByIdentifier: map[string]int{"ada l.": 2},
			monthNumber:        9,
			expectedSelected:   []string{"Ada L."},
		},
		{
			name:               "count_exceeds_hours",
			countsByIdentifier: map[string]int{"ada l.": 7},
			monthNumber:        9,
			expectedSelected:   []string{"Ada L."},
		},
		{
			name:               "count_below_hours_is_unchanged",
			countsByIdentifier: map[string]int{"grace h.": 2},
			monthNumber:        9,
			expectedUnchanged:  1,
		},
		{
			name:               "month_not_available_is_unchanged",
			countsByIdentifier: map[string]int{"zoe m.": 3},
			monthNumber:        9,
			expectedUnchanged:  1,
		},
		{
			name:               "unknown_mentor_is_skipped",
			countsByIdentifier: map[string]int{"nobody known": 4},
			monthNumber:        9,
			expectedSkipped: []roster.DecisionSkip{
				{NormalizedIdentifier: "nobody known", Reason: roster.SkipReasonRecordNotFound},
			},
		},
		{
			name:               "invalid_hours_is_skipped",
			countsByIdentifier: map[string]int{"mary j.": 4},
			monthNumber:        9,
			expectedSkipped: []roster.DecisionSkip{
				{NormalizedIdentifier: "mary j.", Reason: roster.SkipReasonInvalidHours},
			},
		},
		{
			name: "mixed_counts_evaluated_independently",
			countsByIdentifier: map[string]int{
				"ada l.":   2,
				"grace h.": 1,
				"missing":  9,
			},
			monthNumber:       9,
			expectedSelected:  []string{"Ada L."},
			expectedUnchanged: 1,
			expectedSkipped: []roster.DecisionSkip{
				{NormalizedIdentifier: "missing", Reason: roster.SkipReasonRecordNotFound},
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			decision := roster.Decide(testCase.countsByIdentifier, testCase.monthNumber, index)

			require.Equal(subtestInstance, testCase.expectedSelected, decision.SelectedDisplayNames())
			require.Equal(subtestInstance, testCase.expectedSkipped, decision.Skipped)
			require.Len(subtestInstance, decision.Unchanged, testCase.expectedUnchanged)
		})
	}
}

func TestDecideIsDeterministicAcrossMapOrder(testInstance *testing.T) {
	index := buildDecisionIndex(testInstance)
	countsByIdentifier := map[string]int{
		"zoe m.":   2,
		"ada l.":   3,
		"grace h.": 6,
	}

	firstDecision := roster.Decide(countsByIdentifier, 9, index)
	secondDecision := roster.Decide(countsByIdentifier, 9, index)

	require.Equal(testInstance, firstDecision, secondDecision)
	require.Equal(testInstance, []string{"Ada L.", "Grace H."}, firstDecision.SelectedDisplayNames())
}

func TestDecideSelectionCarriesEvaluationDetails(testInstance *testing.T) {
	index := buildDecisionIndex(testInstance)

	decision := roster.Decide(map[string]int{"ada l.": 4}, 9, index)
	require.Len(testInstance, decision.Selected, 1)

	selection := decision.Selected[0]
	require.Equal(testInstance, "Ada L.", selection.DisplayName)
	require.Equal(testInstance, "ada l.", selection.NormalizedIdentifier)
	require.Equal(testInstance, 4, selection.AppliedCount)
	require.Equal(testInstance, 2, selection.Hours)
}
