package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/nissyi-gh/teamflow/internal/model"
)

var statusColors = map[model.DisplayStatus]lipgloss.Color{
	model.StatusDone:     lipgloss.Color("42"),
	model.StatusDueToday: lipgloss.Color("214"),
	model.StatusLate:     lipgloss.Color("196"),
	model.StatusPending:  lipgloss.Color("245"),
}

// statusBadge renders s in its status colour.
func statusBadge(s model.DisplayStatus) string {
	return lipgloss.NewStyle().
		Foreground(statusColors[s]).
		Bold(true).
		Render("[" + string(s) + "]")
}

// TaskItem wraps model.Task to satisfy the list.DefaultItem interface.
type TaskItem struct {
	Task model.Task
	// Now is the instant the status is computed at.
	Now time.Time
}

func (i TaskItem) Title() string {
	check := "[ ]"
	if i.Task.IsCompleted {
		check = "[x]"
	}
	return fmt.Sprintf("%s %s %s", check, i.Task.Title, statusBadge(i.Task.Status(i.Now)))
}

func (i TaskItem) Description() string {
	return fmt.Sprintf("%s · %s", i.Task.Priority.Label(), assigneeLabel(i.Task))
}

func (i TaskItem) FilterValue() string {
	return i.Task.Title
}

func assigneeLabel(t model.Task) string {
	if email := t.AssigneeEmail(); email != "" {
		return email
	}
	return "Unassigned"
}
