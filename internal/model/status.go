package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DisplayStatus is the derived classification of a task. It is never
// stored; compute it from the task on every read.
type DisplayStatus string

const (
	StatusDone     DisplayStatus = "Done"
	StatusDueToday DisplayStatus = "Due Today"
	StatusLate     DisplayStatus = "Missed/Late"
	StatusPending  DisplayStatus = "Pending"
)

// Statuses lists every display status in filter order.
var Statuses = []DisplayStatus{StatusDone, StatusDueToday, StatusLate, StatusPending}

// ResolveStatus maps a completion flag and due date to a display status
// as seen at now. Completion wins over any date. A due date on the same
// calendar day as now (in now's location) is Due Today even if its
// time-of-day has already passed.
func ResolveStatus(isCompleted bool, due, now time.Time) DisplayStatus {
	if isCompleted {
		return StatusDone
	}
	if sameDay(due.In(now.Location()), now) {
		return StatusDueToday
	}
	if due.Before(now) {
		return StatusLate
	}
	return StatusPending
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDueDate reads a due date as served by the store. A bare
// YYYY-MM-DD is a calendar date and is placed at midnight in loc; full
// timestamps are instants.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty due date")
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized due date %q", s)
}

// ParseStatus accepts a status label, case-insensitively. The empty
// string means "any status".
func ParseStatus(s string) (DisplayStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Filter narrows a task listing. The zero value matches everything.
type Filter struct {
	Status   DisplayStatus
	Priority Priority
}

// IsZero reports whether the filter has no criteria.
func (f Filter) IsZero() bool {
	return f.Status == "" && f.Priority == ""
}

// Query encodes the filter as the store's query parameters. Unset fields
// are omitted.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	return q
}

// NextStatus cycles through "any" and every status, for key-driven
// filter selection.
func (f Filter) NextStatus() Filter {
	f.Status = cycle(Statuses, f.Status)
	return f
}

// NextPriority cycles through "any" and every priority.
func (f Filter) NextPriority() Filter {
	f.Priority = cycle(Priorities, f.Priority)
	return f
}

func cycle[T comparable](values []T, current T) T {
	var zero T
	if current == zero {
		return values[0]
	}
	for i, v := range values {
		if v == current {
			if i+1 < len(values) {
				return values[i+1]
			}
			return zero
		}
	}
	return zero
}
