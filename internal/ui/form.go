package ui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nissyi-gh/teamflow/internal/model"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldDueDate
	fieldPriority
	fieldAssignee
	fieldCount
)

var errTitleRequired = errors.New("Title is required.")

var fieldLabels = [fieldCount]string{"Title", "Description", "Due date", "Priority", "Assignee"}

// taskForm creates a task, or edits one when editing is set.
type taskForm struct {
	editing  *model.Task
	title    textinput.Model
	desc     textarea.Model
	due      dueDateInput
	priority model.Priority
	assignee textinput.Model
	focus    int
	saving   bool
	err      string
}

func newTaskForm(task *model.Task, today func() time.Time) taskForm {
	title := textinput.New()
	title.Placeholder = "Task title..."
	title.CharLimit = 255

	desc := textarea.New()
	desc.Placeholder = "Task description..."
	desc.CharLimit = 4096
	desc.SetHeight(4)

	assignee := textinput.New()
	assignee.Placeholder = "assignee@example.com (optional)"
	assignee.CharLimit = 254

	f := taskForm{
		title:    title,
		desc:     desc,
		due:      newDueDateInput(today),
		priority: model.PriorityMedium,
		assignee: assignee,
	}
	if task != nil {
		in := model.InputFrom(*task)
		f.editing = task
		f.title.SetValue(in.Title)
		f.desc.SetValue(in.Description)
		f.due.SetValue(in.DueDate)
		f.priority = in.Priority
		f.assignee.SetValue(in.AssigneeEmail)
	}
	return f
}

func (f *taskForm) setWidth(w int) {
	if w <= 0 {
		return
	}
	f.title.Width = w - 14
	f.assignee.Width = w - 14
	f.desc.SetWidth(w - 4)
}

func (f *taskForm) focusCurrent() tea.Cmd {
	f.title.Blur()
	f.desc.Blur()
	f.due.Blur()
	f.assignee.Blur()
	switch f.focus {
	case fieldTitle:
		return f.title.Focus()
	case fieldDescription:
		return f.desc.Focus()
	case fieldDueDate:
		return f.due.Focus()
	case fieldAssignee:
		return f.assignee.Focus()
	}
	return nil
}

// input collects the form into a TaskInput, checking what can be
// checked locally.
func (f taskForm) input() (model.TaskInput, error) {
	in := model.TaskInput{
		Title:         strings.TrimSpace(f.title.Value()),
		Description:   strings.TrimSpace(f.desc.Value()),
		Priority:      f.priority,
		AssigneeEmail: strings.TrimSpace(f.assignee.Value()),
	}
	if in.Title == "" {
		return model.TaskInput{}, errTitleRequired
	}
	if !f.due.IsEmpty() {
		due, err := f.due.Value()
		if err != nil {
			return model.TaskInput{}, err
		}
		in.DueDate = due
	}
	return in, nil
}

func (f taskForm) Update(msg tea.Msg) (taskForm, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			if keyMsg.String() == "down" && f.focus == fieldDescription {
				break
			}
			f.focus = (f.focus + 1) % fieldCount
			return f, f.focusCurrent()
		case "shift+tab", "up":
			if keyMsg.String() == "up" && f.focus == fieldDescription {
				break
			}
			f.focus = (f.focus + fieldCount - 1) % fieldCount
			return f, f.focusCurrent()
		}
		if f.focus == fieldPriority {
			switch keyMsg.String() {
			case "right", "l", " ":
				f.priority = nextPriority(f.priority, 1)
			case "left", "h":
				f.priority = nextPriority(f.priority, -1)
			}
			return f, nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDescription:
		f.desc, cmd = f.desc.Update(msg)
	case fieldDueDate:
		f.due, cmd = f.due.Update(msg)
	case fieldAssignee:
		f.assignee, cmd = f.assignee.Update(msg)
	}
	return f, cmd
}

func nextPriority(p model.Priority, step int) model.Priority {
	n := len(model.Priorities)
	for i, q := range model.Priorities {
		if q == p {
			return model.Priorities[(i+step+n)%n]
		}
	}
	return model.PriorityMedium
}

func (f taskForm) View() string {
	header := "New Task"
	if f.editing != nil {
		header = "Edit Task"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(header) + "\n\n")
	for i := 0; i < fieldCount; i++ {
		cursor := "  "
		if i == f.focus {
			cursor = "> "
		}
		var body string
		switch i {
		case fieldTitle:
			body = f.title.View()
		case fieldDescription:
			body = "\n" + f.desc.View()
		case fieldDueDate:
			body = f.due.View()
		case fieldPriority:
			var opts []string
			for _, p := range model.Priorities {
				if p == f.priority {
					opts = append(opts, "["+string(p)+"]")
				} else {
					opts = append(opts, " "+string(p)+" ")
				}
			}
			body = strings.Join(opts, " ")
		case fieldAssignee:
			body = f.assignee.View()
		}
		sb.WriteString(cursor + labelStyle.Render(fieldLabels[i]) + body + "\n")
	}

	if f.err != "" {
		sb.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	status := "tab: next field • ctrl+s: save • esc: cancel"
	if f.saving {
		status = "saving…"
	}
	sb.WriteString("\n" + statusStyle.Render(status))
	return sb.String()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.screen = screenList
			return m, nil
		case "ctrl+s":
			if m.form.saving {
				return m, nil
			}
			in, err := m.form.input()
			if err != nil {
				m.form.err = err.Error()
				return m, nil
			}
			m.form.err = ""
			m.form.saving = true
			gen, ctx, c, editing := m.gen, m.ctx, m.tasks, m.form.editing
			return m, func() tea.Msg {
				var err error
				if editing != nil {
					_, err = c.Update(ctx, *editing, in)
				} else {
					_, err = c.Create(ctx, in)
				}
				return formSavedMsg{gen: gen, err: err}
			}
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}
