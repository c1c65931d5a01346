package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nissyi-gh/teamflow/internal/model"
)

const dueLayout = "2006-01-02"

const (
	dueYear = iota
	dueMonth
	dueDay
)

var errDueDayRequired = errors.New("Due date needs a day.")

// dueDateInput edits the due_date sent to the store as year, month and
// day fields. Tab belongs to the surrounding form, so the parts are
// switched with left/right or a typed separator. "t" fills in today and
// "+" moves the date one day later.
type dueDateInput struct {
	parts [3]textinput.Model
	focus int
	loc   *time.Location
	today func() time.Time
}

func newDueDateInput(today func() time.Time) dueDateInput {
	widths := [3]int{4, 2, 2}
	placeholders := [3]string{"YYYY", "MM", "DD"}

	var parts [3]textinput.Model
	for i := range parts {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = widths[i]
		ti.Width = widths[i] + 1
		ti.Prompt = ""
		parts[i] = ti
	}
	return dueDateInput{parts: parts, loc: today().Location(), today: today}
}

func (d *dueDateInput) Focus() tea.Cmd {
	return d.focusPart(dueYear)
}

func (d *dueDateInput) Blur() {
	for i := range d.parts {
		d.parts[i].Blur()
	}
}

// SetValue fills the parts from a due_date as the store serves it. A
// timestamp is shown as its calendar day in the viewer's location; a
// value that does not parse leaves the field blank.
func (d *dueDateInput) SetValue(due string) {
	t, err := model.ParseDueDate(due, d.loc)
	if err != nil {
		d.clear()
		return
	}
	d.set(t.In(d.loc))
}

func (d *dueDateInput) set(t time.Time) {
	d.parts[dueYear].SetValue(fmt.Sprintf("%04d", t.Year()))
	d.parts[dueMonth].SetValue(fmt.Sprintf("%02d", int(t.Month())))
	d.parts[dueDay].SetValue(fmt.Sprintf("%02d", t.Day()))
}

func (d *dueDateInput) clear() {
	for i := range d.parts {
		d.parts[i].SetValue("")
	}
}

// IsEmpty reports whether no part has been filled in.
func (d dueDateInput) IsEmpty() bool {
	for _, p := range d.parts {
		if strings.TrimSpace(p.Value()) != "" {
			return false
		}
	}
	return true
}

// Value returns the due_date to send, as YYYY-MM-DD. A blank year or
// month is taken from today. Calendar dates that do not exist, such as
// February 30th, are rejected.
func (d dueDateInput) Value() (string, error) {
	today := d.today().In(d.loc)
	year, month, day := d.number(dueYear), d.number(dueMonth), d.number(dueDay)
	if day < 0 {
		return "", errDueDayRequired
	}
	if year < 0 {
		year = today.Year()
	}
	if month < 0 {
		month = int(today.Month())
	}

	text := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if _, err := time.ParseInLocation(dueLayout, text, d.loc); err != nil {
		return "", fmt.Errorf("Due date %s is not a real date.", text)
	}
	return text, nil
}

// number returns a part as an integer, or -1 when it is blank.
func (d dueDateInput) number(i int) int {
	s := strings.TrimSpace(d.parts[i].Value())
	if s == "" {
		return -1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// shift moves the date by days, starting from today when the field is
// blank or incomplete.
func (d *dueDateInput) shift(days int) {
	start := d.today().In(d.loc)
	if v, err := d.Value(); err == nil {
		if t, err := time.ParseInLocation(dueLayout, v, d.loc); err == nil {
			start = t
		}
	}
	d.set(start.AddDate(0, 0, days))
}

func (d *dueDateInput) focusPart(i int) tea.Cmd {
	d.focus = i
	var cmd tea.Cmd
	for j := range d.parts {
		if j == i {
			cmd = d.parts[j].Focus()
		} else {
			d.parts[j].Blur()
		}
	}
	return cmd
}

func (d dueDateInput) Update(msg tea.Msg) (dueDateInput, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		d.parts[d.focus], cmd = d.parts[d.focus].Update(msg)
		return d, cmd
	}

	switch keyMsg.String() {
	case "right", "-", "/":
		if d.focus < dueDay {
			cmd := d.focusPart(d.focus + 1)
			return d, cmd
		}
		return d, nil
	case "left":
		if d.focus > dueYear {
			cmd := d.focusPart(d.focus - 1)
			return d, cmd
		}
		return d, nil
	case "t":
		d.set(d.today().In(d.loc))
		return d, nil
	case "+":
		d.shift(1)
		return d, nil
	}

	if keyMsg.Type == tea.KeyRunes {
		for _, r := range keyMsg.Runes {
			if !unicode.IsDigit(r) {
				return d, nil
			}
		}
	}
	var cmd tea.Cmd
	d.parts[d.focus], cmd = d.parts[d.focus].Update(msg)
	return d, cmd
}

func (d dueDateInput) View() string {
	return d.parts[dueYear].View() + "-" + d.parts[dueMonth].View() + "-" + d.parts[dueDay].View()
}
