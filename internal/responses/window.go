package responses

import "time"

// MonthWindow bounds one scheduling month in a fixed zone. The end bound is
// exclusive.
type MonthWindow struct {
	Start time.Time
	End   time.Time
}

// CurrentMonthWindow derives the window containing the provided instant.
func CurrentMonthWindow(referenceTime time.Time) MonthWindow {
	windowStart := time.Date(referenceTime.Year(), referenceTime.Month(), 1, 0, 0, 0, 0, referenceTime.Location())
	return MonthWindow{
		Start: windowStart,
		End:   windowStart.AddDate(0, 1, 0),
	}
}

// Contains reports whether the instant falls inside the window.
func (window MonthWindow) Contains(candidateTime time.Time) bool {
	return !candidateTime.Before(window.Start) && candidateTime.Before(window.End)
}

// MonthNumber returns the calendar month the window covers.
func (window MonthWindow) MonthNumber() int {
	return int(window.Start.Month())
}
