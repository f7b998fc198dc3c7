package responses

import (
	"sort"
	"time"

	"github.com/wcc-tools/mentorsync/internal/utils"
)

const menteeNameKeyPrefixConstant = "name::"

// ResolveTimestamps converts raw rows into applications, dropping rows whose
// timestamp cannot be interpreted. The number of dropped rows is reported so
// callers can surface it.
func ResolveTimestamps(rows []Row, location *time.Location) ([]Application, int) {
	applications := make([]Application, 0, len(rows))
	droppedRowCount := 0
	for _, row := range rows {
		submittedAt, timestampParsed := ParseTimestamp(row.Timestamp, location)
		if !timestampParsed {
			droppedRowCount++
			continue
		}
		applications = append(applications, Application{
			SubmittedAt: submittedAt,
			MenteeName:  row.MenteeName,
			MentorName:  row.MentorName,
			Email:       row.Email,
		})
	}
	return applications, droppedRowCount
}

// FilterToWindow keeps applications submitted inside the scheduling window.
func FilterToWindow(applications []Application, window MonthWindow) []Application {
	filteredApplications := make([]Application, 0, len(applications))
	for _, application := range applications {
		if window.Contains(application.SubmittedAt) {
			filteredApplications = append(filteredApplications, application)
		}
	}
	return filteredApplications
}

// DeduplicateFirstApplications keeps only the earliest application per
// mentee. Mentees are keyed by normalized email address, falling back to the
// normalized mentee name when no email was captured.
func DeduplicateFirstApplications(applications []Application) []Application {
	orderedApplications := make([]Application, len(applications))
	copy(orderedApplications, applications)
	sort.SliceStable(orderedApplications, func(firstIndex int, secondIndex int) bool {
		return orderedApplications[firstIndex].SubmittedAt.Before(orderedApplications[secondIndex].SubmittedAt)
	})

	seenMentees := make(map[string]struct{}, len(orderedApplications))
	firstApplications := make([]Application, 0, len(orderedApplications))
	for _, application := range orderedApplications {
		menteeKey := utils.NormalizeIdentifier(application.Email)
		if len(menteeKey) == 0 {
			menteeKey = menteeNameKeyPrefixConstant + utils.NormalizeIdentifier(application.MenteeName)
		}
		if _, alreadySeen := seenMentees[menteeKey]; alreadySeen {
			continue
		}
		seenMentees[menteeKey] = struct{}{}
		firstApplications = append(firstApplications, application)
	}
	return firstApplications
}

// CountByMentor tallies applications per normalized mentor name.
func CountByMentor(applications []Application) map[string]int {
	countsByIdentifier := make(map[string]int, len(applications))
	for _, application := range applications {
		normalizedMentor := utils.NormalizeIdentifier(application.MentorName)
		countsByIdentifier[normalizedMentor]++
	}
	return countsByIdentifier
}
