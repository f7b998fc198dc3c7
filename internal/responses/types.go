package responses

import (
	"context"
	"time"
)

// Row is one raw response feed entry prior to timestamp resolution.
type Row struct {
	Timestamp  string
	MenteeName string
	MentorName string
	Email      string
}

// Application is a response row whose timestamp resolved in the scheduling zone.
type Application struct {
	SubmittedAt time.Time
	MenteeName  string
	MentorName  string
	Email       string
}

// Source supplies raw response rows from the configured feed.
type Source interface {
	Load(executionContext context.Context) ([]Row, error)
}
