package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nissyi-gh/teamflow/internal/api"
	"github.com/nissyi-gh/teamflow/internal/auth"
	"github.com/nissyi-gh/teamflow/internal/clock"
	"github.com/nissyi-gh/teamflow/internal/model"
	"github.com/nissyi-gh/teamflow/internal/reassign"
	"github.com/nissyi-gh/teamflow/internal/share"
	"github.com/nissyi-gh/teamflow/internal/tasks"
)

type screen int

const (
	screenLogin screen = iota
	screenList
	screenForm
	screenConfirm
)

var (
	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	detailStyle  = lipgloss.NewStyle().
			Padding(1, 2).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241"))
	descBoxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241"))
)

type keyMap struct {
	Toggle         key.Binding
	Add            key.Binding
	Edit           key.Binding
	Delete         key.Binding
	Reassign       key.Binding
	Copy           key.Binding
	StatusFilter   key.Binding
	PriorityFilter key.Binding
	ResetFilter    key.Binding
	Refresh        key.Binding
	Logout         key.Binding
	Quit           key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys("enter", "x"),
			key.WithHelp("enter/x", "toggle"),
		),
		Add: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Reassign: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "reassign"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy"),
		),
		StatusFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "status"),
		),
		PriorityFilter: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "priority"),
		),
		ResetFilter: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Toggle, k.Add, k.Edit, k.Delete, k.Reassign, k.Copy,
		k.StatusFilter, k.PriorityFilter, k.ResetFilter, k.Refresh, k.Logout,
	}
}

// Auth is the session side of the app.
type Auth interface {
	Current() model.Session
	Login(ctx context.Context, email, password string) (model.Session, error)
	Register(ctx context.Context, name, email, password, confirmation string) (model.Session, error)
	Logout(ctx context.Context) error
}

// Options wires a Model.
type Options struct {
	Auth  Auth
	Tasks *tasks.Controller

	// Filter is applied to the first load after sign-in.
	Filter model.Filter

	// Clock drives status badges. Nil means the real clock.
	Clock clock.Clock

	// Copy puts a task on the clipboard. Nil means share.Copy.
	Copy func(task model.Task, now time.Time) error

	Context context.Context
	Logger  *slog.Logger
}

// Model is the top-level BubbleTea model for the teamflow TUI.
type Model struct {
	ctx      context.Context
	auth     Auth
	tasks    *tasks.Controller
	reassign *reassign.Workflow
	clock    clock.Clock
	copy     func(model.Task, time.Time) error
	logger   *slog.Logger

	screen        screen
	list          list.Model
	keys          keyMap
	login         authForm
	form          taskForm
	confirmTask   model.Task
	reassignInput textinput.Model
	initial       model.Filter

	// gen increments on sign-out; results of commands issued under an
	// earlier session are dropped.
	gen    int
	err    string
	notice string
	width  int
	height int
}

type tasksLoadedMsg struct {
	gen   int
	tasks []model.Task
	err   error
}

type mutationDoneMsg struct {
	gen int
	op  string
	err error
}

type reassignDoneMsg struct {
	gen int
	req reassign.Request
	err error
}

type taskFetchedMsg struct {
	gen  int
	task model.Task
	err  error
}

type formSavedMsg struct {
	gen int
	err error
}

type authDoneMsg struct {
	err error
}

type loggedOutMsg struct {
	err error
}

type copiedMsg struct {
	title string
	err   error
}

// NewModel creates a new TUI model. It starts on the task list when a
// session is present and on the login screen otherwise.
func NewModel(opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Copy == nil {
		opts.Copy = share.Copy
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	keys := newKeyMap()

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	l := list.New(nil, delegate, 0, 0)
	l.Title = "teamflow"
	l.Styles.Title = titleStyle
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("task", "tasks")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add, keys.Delete, keys.Reassign, keys.StatusFilter}
	}
	l.AdditionalFullHelpKeys = keys.bindings

	ri := textinput.New()
	ri.Placeholder = "assignee@example.com"
	ri.CharLimit = 254

	m := Model{
		ctx:           opts.Context,
		auth:          opts.Auth,
		tasks:         opts.Tasks,
		clock:         opts.Clock,
		copy:          opts.Copy,
		logger:        opts.Logger,
		screen:        screenLogin,
		list:          l,
		keys:          keys,
		login:         newAuthForm(),
		reassignInput: ri,
		initial:       opts.Filter,
	}
	m.reassign = reassign.New(opts.Tasks.Reassign)
	if opts.Auth.Current().Authenticated() {
		m.screen = screenList
		m.list.Title = listTitle(opts.Auth.Current())
	}
	return m
}

func listTitle(sess model.Session) string {
	if sess.User == nil || sess.User.Name == "" {
		return "teamflow"
	}
	return "teamflow · " + sess.User.Name
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenList {
		return m.load(m.initial)
	}
	return textinput.Blink
}

func (m Model) load(filter model.Filter) tea.Cmd {
	gen, ctx, c := m.gen, m.ctx, m.tasks
	return func() tea.Msg {
		ts, err := c.Load(ctx, filter)
		return tasksLoadedMsg{gen: gen, tasks: ts, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	return m.load(m.tasks.Filter())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		contentWidth := msg.Width - h
		leftWidth := contentWidth * 55 / 100
		m.list.SetSize(leftWidth, msg.Height-v-2)
		m.form.setWidth(contentWidth)
		return m, nil

	case tasksLoadedMsg:
		if msg.gen != m.gen || errors.Is(msg.err, tasks.ErrStale) {
			return m, nil
		}
		var loadErr *tasks.LoadError
		if errors.As(msg.err, &loadErr) && loadErr.Kind == tasks.Unauthorized {
			return m.signOut(loadErr.Message())
		}
		if msg.err != nil {
			m.err = userMessage(msg.err, "Failed to load tasks.")
			return m, nil
		}
		m.setItems(msg.tasks)
		m.err = ""
		return m, nil

	case mutationDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.setItems(m.tasks.Tasks())
		if msg.err != nil {
			if sessionRejected(msg.err) {
				return m.signOut("Your session has expired. Please log in again.")
			}
			m.err = userMessage(msg.err, mutationFallback(msg.op))
			return m, nil
		}
		m.err = ""
		return m.afterChange()

	case reassignDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.reassign.Finish(msg.req, msg.err)
		m.setItems(m.tasks.Tasks())
		if msg.err != nil {
			if sessionRejected(msg.err) {
				return m.signOut("Your session has expired. Please log in again.")
			}
			m.err = userMessage(msg.err, "Failed to reassign task.")
			return m, nil
		}
		m.reassignInput.Blur()
		m.err = ""
		m.notice = "Task reassigned."
		return m.afterChange()

	case taskFetchedMsg:
		if msg.gen != m.gen || m.screen != screenList {
			return m, nil
		}
		if msg.err != nil {
			m.err = userMessage(msg.err, "Failed to load task.")
			return m, nil
		}
		m.form = newTaskForm(&msg.task, m.clock.Now)
		m.form.setWidth(m.width - appStyle.GetHorizontalFrameSize())
		m.screen = screenForm
		cmd := m.form.focusCurrent()
		return m, cmd

	case formSavedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.setItems(m.tasks.Tasks())
		if msg.err != nil {
			if sessionRejected(msg.err) {
				return m.signOut("Your session has expired. Please log in again.")
			}
			m.form.err = userMessage(msg.err, "Something went wrong.")
			m.form.saving = false
			return m, nil
		}
		m.screen = screenList
		m.err = ""
		m.notice = "Task saved."
		return m.afterChange()

	case authDoneMsg:
		m.login.busy = false
		if msg.err != nil {
			m.login.err = authMessage(msg.err)
			return m, nil
		}
		m.login = newAuthForm()
		m.screen = screenList
		m.err, m.notice = "", ""
		m.list.Title = listTitle(m.auth.Current())
		return m, m.load(m.initial)

	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Error("clearing session failed", "error", msg.err)
			m.login.err = "Could not clear the saved session."
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.err = "Could not copy to the clipboard."
			return m, nil
		}
		m.notice = fmt.Sprintf("Copied %q.", msg.title)
		return m, nil
	}

	switch m.screen {
	case screenLogin:
		return m.updateLogin(msg)
	case screenList:
		return m.updateList(msg)
	case screenForm:
		return m.updateForm(msg)
	case screenConfirm:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m *Model) setItems(ts []model.Task) {
	now := m.clock.Now()
	items := make([]list.Item, len(ts))
	for i, t := range ts {
		items[i] = TaskItem{Task: t, Now: now}
	}
	m.list.SetItems(items)
}

// afterChange reports a failed refresh following a change the store
// accepted. The change itself stands.
func (m Model) afterChange() (tea.Model, tea.Cmd) {
	var loadErr *tasks.LoadError
	if !errors.As(m.tasks.Err(), &loadErr) {
		return m, nil
	}
	if loadErr.Kind == tasks.Unauthorized {
		return m.signOut(loadErr.Message())
	}
	m.err = loadErr.Message()
	return m, nil
}

// signOut drops everything belonging to the current session, shows the
// login screen with notice, and clears the session in the background.
func (m Model) signOut(notice string) (tea.Model, tea.Cmd) {
	m.gen++
	m.tasks.Reset()
	m.reassign.Cancel()
	m.reassignInput.Blur()
	m.list.SetItems(nil)
	m.list.Title = "teamflow"
	m.login = newAuthForm()
	m.login.notice = notice
	m.screen = screenLogin
	m.err, m.notice = "", ""

	ctx, a := m.ctx, m.auth
	logout := func() tea.Msg {
		return loggedOutMsg{err: a.Logout(ctx)}
	}
	focus := m.login.focusCurrent()
	return m, tea.Batch(logout, focus)
}

func (m Model) View() string {
	switch m.screen {
	case screenLogin:
		return appStyle.Render(m.login.View())
	case screenForm:
		return appStyle.Render(m.form.View())
	case screenConfirm:
		return appStyle.Render(
			confirmStyle.Render("Delete Task?") + "\n\n" +
				"  " + m.confirmTask.Title + "\n\n" +
				statusStyle.Render("y: delete • n/esc: cancel"),
		)
	default:
		return m.viewList()
	}
}

// sessionRejected reports whether the service refused the bearer token.
func sessionRejected(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

func mutationFallback(op string) string {
	switch op {
	case "toggle":
		return "Failed to update task."
	case "delete":
		return "Failed to delete task."
	case "reassign":
		return "Failed to reassign task."
	}
	return "Something went wrong."
}

// userMessage turns an error from the task controller into one line for
// the status area.
func userMessage(err error, fallback string) string {
	var (
		mutErr   *tasks.MutationError
		loadErr  *tasks.LoadError
		validErr *reassign.ValidationError
	)
	switch {
	case errors.Is(err, tasks.ErrBusy):
		return "Another action is in progress."
	case errors.As(err, &validErr):
		return validErr.Error()
	case errors.As(err, &mutErr):
		return mutErr.UserMessage(fallback)
	case errors.As(err, &loadErr):
		return loadErr.Message()
	}
	return fallback
}

func authMessage(err error) string {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		return "Something went wrong."
	}
	if authErr.Message != "" {
		return authErr.Message
	}
	switch authErr.Kind {
	case auth.InvalidCredentials:
		return "Invalid email or password."
	case auth.NetworkFailure:
		return "Could not reach the server. Please try again."
	}
	return "Something went wrong."
}
