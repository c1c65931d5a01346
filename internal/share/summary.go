// Package share renders a task as plain text for pasting elsewhere.
package share

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/nissyi-gh/teamflow/internal/model"
)

// Summary returns a short plain-text description of task as of now.
func Summary(task model.Task, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s\n", task.Title))
	sb.WriteString(fmt.Sprintf("- Status: %s\n", task.Status(now)))
	sb.WriteString(fmt.Sprintf("- Priority: %s\n", task.Priority.Label()))
	if task.DueDate != "" {
		sb.WriteString(fmt.Sprintf("- Due: %s\n", dueLabel(task.DueDate, now.Location())))
	}
	assignee := task.AssigneeEmail()
	if assignee == "" {
		assignee = "Unassigned"
	}
	sb.WriteString(fmt.Sprintf("- Assignee: %s\n", assignee))

	if desc := strings.TrimSpace(task.Description); desc != "" {
		sb.WriteString("\n")
		sb.WriteString(desc)
		sb.WriteString("\n")
	}
	return sb.String()
}

func dueLabel(s string, loc *time.Location) string {
	due, err := model.ParseDueDate(s, loc)
	if err != nil {
		return s
	}
	return due.In(loc).Format("2006-01-02")
}

// Copy puts the summary of task on the system clipboard.
func Copy(task model.Task, now time.Time) error {
	if err := clipboard.WriteAll(Summary(task, now)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
