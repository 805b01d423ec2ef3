// Package projectstatus derives a project's lifecycle status and completion
// percentage the same way for every ledger backend.
package projectstatus

import (
	"time"

	"github.com/dalemusser/projectdash/internal/domain/models"
)

// Derive returns the status of a project on the given day.
//
// A project whose end date lies before today is Completed. Otherwise a
// project that has started (start on or before today) is In Progress, and
// anything else is Not Started. Only calendar dates are compared.
func Derive(start time.Time, end *time.Time, today time.Time) string {
	day := truncateDay(today)
	if end != nil && truncateDay(*end).Before(day) {
		return models.StatusCompleted
	}
	if !truncateDay(start).After(day) {
		return models.StatusInProgress
	}
	return models.StatusNotStarted
}

// Completion returns floor(completed / total * 100), or 0 without tasks.
func Completion(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return completed * 100 / total
}

// FormatDate renders a date in wire format; nil yields nil.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(models.DateLayout)
	return &s
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
