package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	authName = iota
	authEmail
	authPassword
	authConfirm
)

// authForm is the login screen; register switches it to sign-up.
type authForm struct {
	register bool
	inputs   [4]textinput.Model
	focus    int
	busy     bool
	err      string
	notice   string
}

func newAuthForm() authForm {
	placeholders := [4]string{"Name", "Email", "Password", "Confirm password"}
	var inputs [4]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 255
		if i == authPassword || i == authConfirm {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		inputs[i] = ti
	}
	f := authForm{inputs: inputs, focus: authEmail}
	f.focusCurrent()
	return f
}

// fields lists the inputs shown in the current mode, in tab order.
func (f authForm) fields() []int {
	if f.register {
		return []int{authName, authEmail, authPassword, authConfirm}
	}
	return []int{authEmail, authPassword}
}

func (f *authForm) focusCurrent() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *authForm) move(step int) tea.Cmd {
	fields := f.fields()
	pos := 0
	for i, idx := range fields {
		if idx == f.focus {
			pos = i
		}
	}
	pos = (pos + step + len(fields)) % len(fields)
	f.focus = fields[pos]
	return f.focusCurrent()
}

func (f authForm) last() bool {
	fields := f.fields()
	return f.focus == fields[len(fields)-1]
}

func (f authForm) value(i int) string {
	return f.inputs[i].Value()
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.tasks.Close()
		return m, tea.Quit
	case "ctrl+n":
		m.login.register = !m.login.register
		m.login.err = ""
		m.login.focus = m.login.fields()[0]
		cmd := m.login.focusCurrent()
		return m, cmd
	case "tab", "down":
		cmd := m.login.move(1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.login.move(-1)
		return m, cmd
	case "enter":
		if !m.login.last() {
			cmd := m.login.move(1)
			return m, cmd
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	f := m.login
	email := strings.TrimSpace(f.value(authEmail))
	password := f.value(authPassword)
	if email == "" || password == "" {
		m.login.err = "Email and password are required."
		return m, nil
	}

	m.login.busy = true
	m.login.err = ""
	m.login.notice = ""
	ctx, a := m.ctx, m.auth
	if f.register {
		name := strings.TrimSpace(f.value(authName))
		confirm := f.value(authConfirm)
		return m, func() tea.Msg {
			_, err := a.Register(ctx, name, email, password, confirm)
			return authDoneMsg{err: err}
		}
	}
	return m, func() tea.Msg {
		_, err := a.Login(ctx, email, password)
		return authDoneMsg{err: err}
	}
}

func (f authForm) View() string {
	header, toggle := "Log in", "ctrl+n: create an account"
	if f.register {
		header, toggle = "Sign up", "ctrl+n: back to log in"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("teamflow · "+header) + "\n\n")
	if f.notice != "" {
		sb.WriteString(noticeStyle.Render(f.notice) + "\n\n")
	}
	for _, i := range f.fields() {
		sb.WriteString(f.inputs[i].View() + "\n")
	}
	if f.err != "" {
		sb.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	status := "tab: next • enter: submit • " + toggle + " • esc: quit"
	if f.busy {
		status = "signing in…"
	}
	sb.WriteString("\n" + statusStyle.Render(status))
	return sb.String()
}
