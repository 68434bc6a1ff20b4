package views

import (
	"fmt"

	"logbook/internal/core"
)

// DueClassifier is the strategy for placing a due date in a window relative
// to a reference day.
type DueClassifier interface {
	// Classify returns the window of due as seen on asOf. The caller never
	// passes an unknown date.
	Classify(due, asOf core.Date) core.DueWindow
}

// FixedWindow classifies by whole days remaining: negative is Expired, up to
// and including UrgentDays is Urgent, anything later is Incoming.
type FixedWindow struct {
	UrgentDays int
}

func (w FixedWindow) Classify(due, asOf core.Date) core.DueWindow {
	days := due.DaysFrom(asOf)
	switch {
	case days < 0:
		return core.Expired
	case days <= w.UrgentDays:
		return core.Urgent
	default:
		return core.Incoming
	}
}

// DefaultDueWindow is the ten-day urgency window used across the logbook.
var DefaultDueWindow DueClassifier = FixedWindow{UrgentDays: 10}

// BucketByDueWindow counts rows per due window of dateColumn as seen on
// asOf. Rows with an unknown date are not counted.
func BucketByDueWindow(t core.Table, dateColumn string, asOf core.Date) (core.DueSummary, error) {
	return BucketWith(t, dateColumn, asOf, DefaultDueWindow)
}

// BucketWith is BucketByDueWindow with an explicit classifier.
func BucketWith(t core.Table, dateColumn string, asOf core.Date, c DueClassifier) (core.DueSummary, error) {
	var s core.DueSummary
	if err := requireColumn(t, dateColumn); err != nil {
		return s, err
	}
	if asOf.IsUnknown() {
		return s, fmt.Errorf("%w: reference date is unknown", core.ErrParseFailure)
	}
	for i := 0; i < t.Len(); i++ {
		d := t.Date(i, dateColumn)
		if d.IsUnknown() {
			continue
		}
		s.Add(c.Classify(d, asOf))
	}
	return s, nil
}

// DueSeries returns the due-window counts as a chart series in display
// order, zero windows included.
func DueSeries(t core.Table, dateColumn string, asOf core.Date) ([]core.KeyCount, error) {
	s, err := BucketByDueWindow(t, dateColumn, asOf)
	if err != nil {
		return nil, err
	}
	return s.Series(), nil
}
