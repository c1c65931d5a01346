package model

import (
	"encoding/json"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("time zone %s unavailable: %v", name, err)
	}
	return loc
}

func TestResolveStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		completed bool
		due       time.Time
		want      DisplayStatus
	}{
		{"completed overrides past", true, now.AddDate(0, 0, -10), StatusDone},
		{"completed overrides today", true, now, StatusDone},
		{"completed overrides future", true, now.AddDate(1, 0, 0), StatusDone},
		{"due earlier today", false, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC), StatusDueToday},
		{"due later today", false, time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC), StatusDueToday},
		{"due at midnight today", false, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), StatusDueToday},
		{"yesterday", false, time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC), StatusLate},
		{"last year", false, now.AddDate(-1, 0, 0), StatusLate},
		{"tomorrow", false, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), StatusPending},
		{"zero due date", false, time.Time{}, StatusLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveStatus(tt.completed, tt.due, now); got != tt.want {
				t.Errorf("ResolveStatus(%v, %v) = %q, want %q", tt.completed, tt.due, got, tt.want)
			}
		})
	}
}

func TestResolveStatusComparesInNowLocation(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	// 2026-03-14 20:00 UTC is already 2026-03-15 05:00 in Tokyo.
	due := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, tokyo)
	if got := ResolveStatus(false, due, now); got != StatusDueToday {
		t.Errorf("got %q, want %q", got, StatusDueToday)
	}
}

func TestResolveStatusAcrossDST(t *testing.T) {
	newYork := mustLoad(t, "America/New_York")
	// Clocks spring forward on 2026-03-08; the day is 23 hours long.
	due, err := ParseDueDate("2026-03-08", newYork)
	if err != nil {
		t.Fatal(err)
	}
	for _, hour := range []int{0, 1, 3, 12, 23} {
		now := time.Date(2026, 3, 8, hour, 30, 0, 0, newYork)
		if got := ResolveStatus(false, due, now); got != StatusDueToday {
			t.Errorf("hour %d: got %q, want %q", hour, got, StatusDueToday)
		}
	}
	next := time.Date(2026, 3, 9, 0, 0, 0, 0, newYork)
	if got := ResolveStatus(false, due, next); got != StatusLate {
		t.Errorf("next day: got %q, want %q", got, StatusLate)
	}
}

func TestResolveStatusIsTotal(t *testing.T) {
	valid := map[DisplayStatus]bool{}
	for _, s := range Statuses {
		valid[s] = true
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base.AddDate(0, 0, 30).Add(7 * time.Hour)
	for offset := -72; offset <= 72; offset++ {
		due := now.Add(time.Duration(offset) * 13 * time.Hour)
		for _, completed := range []bool{false, true} {
			got := ResolveStatus(completed, due, now)
			if !valid[got] {
				t.Fatalf("ResolveStatus(%v, %v) returned %q", completed, due, got)
			}
			if completed && got != StatusDone {
				t.Fatalf("completed task resolved to %q", got)
			}
			if !completed && sameDay(due, now) && got != StatusDueToday {
				t.Fatalf("same-day task resolved to %q", got)
			}
		}
	}
}

func TestTaskStatus(t *testing.T) {
	now := time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task Task
		want DisplayStatus
	}{
		{"date only today", Task{DueDate: "2026-10-17"}, StatusDueToday},
		{"timestamp earlier today", Task{DueDate: "2026-10-17T09:00:00Z"}, StatusDueToday},
		{"laravel timestamp", Task{DueDate: "2026-10-16 09:00:00"}, StatusLate},
		{"future", Task{DueDate: "2026-12-01"}, StatusPending},
		{"no due date", Task{}, StatusPending},
		{"garbage due date", Task{DueDate: "soon"}, StatusPending},
		{"completed late task", Task{DueDate: "2020-01-01", IsCompleted: true}, StatusDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Status(now); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTaskUnmarshalCompletionFlag(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`{"id":1,"is_completed":true}`, true},
		{`{"id":1,"is_completed":false}`, false},
		{`{"id":1,"is_completed":1}`, true},
		{`{"id":1,"is_completed":0}`, false},
		{`{"id":1}`, false},
	}
	for _, tt := range tests {
		var task Task
		if err := json.Unmarshal([]byte(tt.raw), &task); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if task.IsCompleted != tt.want || task.ID != 1 {
			t.Errorf("unmarshal %s: got %+v", tt.raw, task)
		}
	}
}

func TestFilterQuery(t *testing.T) {
	if got := (Filter{}).Query().Encode(); got != "" {
		t.Errorf("empty filter encoded as %q", got)
	}
	f := Filter{Status: StatusLate, Priority: PriorityHigh}
	if got := f.Query().Encode(); got != "priority=high&status=Missed%2FLate" {
		t.Errorf("got %q", got)
	}
}

func TestFilterCycling(t *testing.T) {
	var f Filter
	var seen []DisplayStatus
	for i := 0; i < len(Statuses)+1; i++ {
		f = f.NextStatus()
		seen = append(seen, f.Status)
	}
	want := append(append([]DisplayStatus{}, Statuses...), "")
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("cycle = %v, want %v", seen, want)
		}
	}
	if f = f.NextPriority(); f.Priority != PriorityLow {
		t.Errorf("first priority = %q", f.Priority)
	}
}

func TestParseStatusAndPriority(t *testing.T) {
	if s, err := ParseStatus("due today"); err != nil || s != StatusDueToday {
		t.Errorf("ParseStatus = %q, %v", s, err)
	}
	if _, err := ParseStatus("overdue"); err == nil {
		t.Error("expected error for unknown status")
	}
	if p, err := ParsePriority("HIGH"); err != nil || p != PriorityHigh {
		t.Errorf("ParsePriority = %q, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
}
