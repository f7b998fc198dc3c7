// Package responses loads mentor application responses from the periodic
// feed and reduces them to per-mentor first-application counts.
//
// It offers a Google Sheets source and a local CSV fixture source behind the
// shared Source interface, plus the timestamp parsing, month windowing,
// deduplication, and counting steps that feed the capacity decision.
package responses
