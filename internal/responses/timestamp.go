package responses

import (
	"strings"
	"time"
)

// timestampLayouts covers the shapes the response feed has produced in
// practice: Google Forms submissions and hand-entered fixture values.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

var zonedTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
}

// ParseTimestamp interprets a raw feed timestamp. Values carrying an explicit
// offset are converted into the scheduling zone; naive values are assumed to
// already be local to it.
func ParseTimestamp(rawTimestamp string, location *time.Location) (time.Time, bool) {
	trimmedTimestamp := strings.TrimSpace(rawTimestamp)
	if len(trimmedTimestamp) == 0 {
		return time.Time{}, false
	}

	for _, zonedLayout := range zonedTimestampLayouts {
		if parsedTimestamp, parseError := time.Parse(zonedLayout, trimmedTimestamp); parseError == nil {
			return parsedTimestamp.In(location), true
		}
	}

	for _, naiveLayout := range timestampLayouts {
		if parsedTimestamp, parseError := time.ParseInLocation(naiveLayout, trimmedTimestamp, location); parseError == nil {
			return parsedTimestamp, true
		}
	}

	return time.Time{}, false
}
