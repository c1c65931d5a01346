package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nissyi-gh/teamflow/internal/model"
	"github.com/nissyi-gh/teamflow/internal/reassign"
)

func (m Model) selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	return item.Task, ok
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.reassign.State() == reassign.Editing {
		return m.updateReassign(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	m.notice = ""

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.tasks.Close()
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.StatusFilter):
		return m, m.load(m.tasks.Filter().NextStatus())

	case key.Matches(keyMsg, m.keys.PriorityFilter):
		return m, m.load(m.tasks.Filter().NextPriority())

	case key.Matches(keyMsg, m.keys.ResetFilter):
		return m, m.load(model.Filter{})

	case key.Matches(keyMsg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(keyMsg, m.keys.Logout):
		return m.signOut("")

	case key.Matches(keyMsg, m.keys.Add):
		m.form = newTaskForm(nil, m.clock.Now)
		m.form.setWidth(m.width - appStyle.GetHorizontalFrameSize())
		m.screen = screenForm
		cmd := m.form.focusCurrent()
		return m, cmd
	}

	task, ok := m.selected()
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	perms := m.tasks.Permissions(task)

	switch {
	case key.Matches(keyMsg, m.keys.Toggle):
		if !perms.CanToggle {
			m.err = "Only the assignee can complete this task."
			return m, nil
		}
		return m, m.mutation("toggle", func() error {
			return m.tasks.Toggle(m.ctx, task)
		})

	case key.Matches(keyMsg, m.keys.Edit):
		if !perms.CanEdit {
			m.err = "Only the assignee can edit this task."
			return m, nil
		}
		gen, ctx, c := m.gen, m.ctx, m.tasks
		return m, func() tea.Msg {
			t, err := c.Get(ctx, task.ID)
			return taskFetchedMsg{gen: gen, task: t, err: err}
		}

	case key.Matches(keyMsg, m.keys.Delete):
		if !perms.CanDelete {
			m.err = "You are not allowed to delete this task."
			return m, nil
		}
		m.confirmTask = task
		m.screen = screenConfirm
		return m, nil

	case key.Matches(keyMsg, m.keys.Reassign):
		if err := m.reassign.Start(task, perms); err != nil {
			m.err = "Only the creator can reassign this task."
			return m, nil
		}
		_, email, _ := m.reassign.Draft()
		m.reassignInput.SetValue(email)
		m.reassignInput.CursorEnd()
		m.err = ""
		cmd := m.reassignInput.Focus()
		return m, cmd

	case key.Matches(keyMsg, m.keys.Copy):
		now, copyFn := m.clock.Now(), m.copy
		return m, func() tea.Msg {
			return copiedMsg{title: task.Title, err: copyFn(task, now)}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// mutation runs call in the background and reports back once the
// controller has re-fetched.
func (m Model) mutation(op string, call func() error) tea.Cmd {
	gen := m.gen
	return func() tea.Msg {
		return mutationDoneMsg{gen: gen, op: op, err: call()}
	}
}

func (m Model) updateReassign(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			req, err := m.reassign.Begin()
			if err != nil {
				m.err = userMessage(err, "Failed to reassign task.")
				return m, nil
			}
			m.err = ""
			gen, ctx, c := m.gen, m.ctx, m.tasks
			return m, func() tea.Msg {
				return reassignDoneMsg{gen: gen, req: req, err: c.Reassign(ctx, req.Task, req.Email)}
			}
		case "esc":
			m.reassign.Cancel()
			m.reassignInput.Blur()
			m.err = ""
			return m, nil
		case "ctrl+c":
			m.tasks.Close()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.reassignInput, cmd = m.reassignInput.Update(msg)
	m.reassign.SetEmail(m.reassignInput.Value())
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			task := m.confirmTask
			m.screen = screenList
			return m, m.mutation("delete", func() error {
				return m.tasks.Delete(m.ctx, task, func(model.Task) bool { return true })
			})
		case "n", "esc":
			m.screen = screenList
			return m, nil
		}
	}
	return m, nil
}

func filterLabel(f model.Filter) string {
	status, priority := "any", "any"
	if f.Status != "" {
		status = string(f.Status)
	}
	if f.Priority != "" {
		priority = string(f.Priority)
	}
	return "status: " + status + " • priority: " + priority
}

func (m Model) renderDetail() string {
	task, ok := m.selected()
	if !ok {
		if len(m.list.Items()) == 0 && !m.tasks.Loading() {
			return statusStyle.Render("No tasks.")
		}
		return ""
	}
	now := m.clock.Now()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(task.Title) + "\n\n")
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("status", statusBadge(task.Status(now)))
	row("priority", task.Priority.Label())
	if task.DueDate != "" {
		row("due", dueText(task.DueDate, now))
	}

	if m.reassign.Editing(task.ID) {
		row("assignee", m.reassignInput.View())
	} else {
		row("assignee", assigneeLabel(task))
	}

	descContent := statusStyle.Render("(no description)")
	if task.Description != "" {
		descContent = task.Description
	}
	sb.WriteString("\n" + descBoxStyle.Render(descContent) + "\n\n")

	if m.reassign.Editing(task.ID) {
		sb.WriteString(statusStyle.Render("enter: save • esc: cancel"))
		return sb.String()
	}

	perms := m.tasks.Permissions(task)
	var actions []string
	if perms.CanToggle {
		actions = append(actions, "x: toggle")
	}
	if perms.CanEdit {
		actions = append(actions, "e: edit")
	}
	if perms.CanDelete {
		actions = append(actions, "d: delete")
	}
	if perms.CanReassign {
		actions = append(actions, "a: reassign")
	}
	actions = append(actions, "y: copy")
	sb.WriteString(statusStyle.Render(strings.Join(actions, "  ")))
	return sb.String()
}

func dueText(due string, now time.Time) string {
	t, err := model.ParseDueDate(due, now.Location())
	if err != nil {
		return due
	}
	return t.In(now.Location()).Format("2006-01-02")
}

func (m Model) viewList() string {
	h, v := appStyle.GetFrameSize()
	contentWidth := m.width - h
	contentHeight := m.height - v - 2
	leftWidth := contentWidth * 55 / 100
	rightWidth := contentWidth - leftWidth

	header := statusStyle.Render(filterLabel(m.tasks.Filter()))
	if m.tasks.Loading() {
		header += statusStyle.Render("  loading…")
	}

	rightPane := detailStyle.
		Width(rightWidth).
		Height(contentHeight).
		Render(m.renderDetail())
	content := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), rightPane)

	footer := ""
	switch {
	case m.err != "":
		footer = errorStyle.Render(m.err)
	case m.notice != "":
		footer = noticeStyle.Render(m.notice)
	}
	return appStyle.Render(header + "\n" + content + "\n" + footer)
}
