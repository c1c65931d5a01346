package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency a task was filed with.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid priorities in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts a priority name in any case. The empty string
// is valid and means "unset".
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Label returns the priority for display. Tasks without a priority are
// shown as medium, which is what the service assigns by default.
func (p Priority) Label() string {
	if p == "" {
		return string(PriorityMedium)
	}
	return string(p)
}

// Profile identifies an authenticated user.
type Profile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Assignee is the user currently responsible for a task.
type Assignee struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Task is a task as served by the remote store. It is read-only on the
// client: every change goes through the store and comes back on re-fetch.
type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"due_date"`
	Priority    Priority  `json:"priority"`
	IsCompleted bool      `json:"is_completed"`
	CreatorID   int       `json:"creator_id"`
	AssigneeID  int       `json:"assignee_id,omitempty"`
	Assignee    *Assignee `json:"assignee,omitempty"`
}

// UnmarshalJSON accepts is_completed as either a boolean or a 0/1 integer.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		IsCompleted flexBool `json:"is_completed"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.IsCompleted = bool(aux.IsCompleted)
	return nil
}

// AssigneeRef returns the id of the current assignee, or 0 when the task
// is unassigned.
func (t Task) AssigneeRef() int {
	if t.Assignee != nil && t.Assignee.ID != 0 {
		return t.Assignee.ID
	}
	return t.AssigneeID
}

// AssigneeEmail returns the assignee's email, or "" when unassigned.
func (t Task) AssigneeEmail() string {
	if t.Assignee == nil {
		return ""
	}
	return t.Assignee.Email
}

// Status derives the display status of the task at now. A missing or
// unreadable due date never makes a task late.
func (t Task) Status(now time.Time) DisplayStatus {
	if t.IsCompleted {
		return StatusDone
	}
	due, err := ParseDueDate(t.DueDate, now.Location())
	if err != nil {
		return StatusPending
	}
	return ResolveStatus(false, due, now)
}

// TaskInput carries the editable fields of a task for create and update.
type TaskInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	DueDate       string   `json:"due_date"`
	Priority      Priority `json:"priority"`
	AssigneeEmail string   `json:"assignee_email"`
}

// InputFrom pre-fills a TaskInput from an existing task for editing.
func InputFrom(t Task) TaskInput {
	return TaskInput{
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       t.DueDate,
		Priority:      Priority(t.Priority.Label()),
		AssigneeEmail: t.AssigneeEmail(),
	}
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true", "1":
		*b = true
	case "false", "0", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}
