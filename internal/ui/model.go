// Package ui provides the interactive terminal front end over the task store.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasklist/internal/output"
	"tasklist/internal/task"
)

// Store is the subset of *store.Store the UI drives.
type Store interface {
	Tasks() []task.Task
	Len() int
	Add(text string) (task.Task, error)
	Toggle(id string) error
	Edit(id, text string) error
	Delete(id string) error
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeConfirmDelete
)

const (
	inputPlaceholder = "What needs to be done?"
	inputCharLimit   = 500
)

// Model is the bubbletea model of the task list screen. Every change goes
// through the store, and the view always renders a fresh snapshot.
type Model struct {
	store  Store
	keys   KeyMap
	mode   mode
	cursor int
	input  textinput.Model
	// target is the id being edited or deleted.
	target string
	status string
	failed bool
	now    func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithClock sets the clock used for task ages.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithKeyMap replaces DefaultKeyMap.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keys = k }
}

// New creates a Model over st.
func New(st Store, opts ...Option) *Model {
	input := textinput.New()
	input.Placeholder = inputPlaceholder
	input.CharLimit = inputCharLimit

	m := &Model{
		store: st,
		keys:  DefaultKeyMap,
		input: input,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cursor returns the index of the selected task.
func (m *Model) Cursor() int { return m.cursor }

// Status returns the current status line.
func (m *Model) Status() string { return m.status }

// Editing reports whether the text input is active.
func (m *Model) Editing() bool { return m.mode == modeAdd || m.mode == modeEdit }

// Confirming reports whether a delete is waiting for y/n.
func (m *Model) Confirming() bool { return m.mode == modeConfirmDelete }

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.Editing() {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch m.mode {
	case modeAdd, modeEdit:
		return m.updateInput(keyMsg)
	case modeConfirmDelete:
		return m.updateConfirm(keyMsg)
	default:
		return m.updateList(keyMsg)
	}
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.store.Tasks()
	m.clampCursor(len(tasks))

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.target = ""
		m.input.SetValue("")
		m.clearStatus()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Edit):
		if len(tasks) == 0 {
			return m, nil
		}
		t := tasks[m.cursor]
		m.mode = modeEdit
		m.target = t.ID
		m.input.SetValue(t.Text)
		m.input.CursorEnd()
		m.clearStatus()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Toggle):
		if len(tasks) == 0 {
			return m, nil
		}
		m.report(m.store.Toggle(tasks[m.cursor].ID), "")
	case key.Matches(msg, m.keys.Delete):
		if len(tasks) == 0 {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.target = tasks[m.cursor].ID
		m.clearStatus()
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		// The stored text is untouched, so cancelling restores it
		m.leaveInput()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		text, ok := task.CleanText(m.input.Value())
		if !ok {
			m.status = "task text required"
			m.failed = true
			return m, nil
		}
		if m.mode == modeAdd {
			_, err := m.store.Add(text)
			// New tasks go on top
			m.cursor = 0
			m.report(err, "added")
		} else {
			m.report(m.store.Edit(m.target, text), "saved")
		}
		m.leaveInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.report(m.store.Delete(m.target), "deleted")
		m.clampCursor(m.store.Len())
	case key.Matches(msg, m.keys.Decline):
	default:
		return m, nil
	}
	m.mode = modeList
	m.target = ""
	return m, nil
}

func (m *Model) leaveInput() {
	m.mode = modeList
	m.target = ""
	m.input.Blur()
	m.input.SetValue("")
}

// report sets the status line from the outcome of a store call. A failed
// write keeps the in-memory change, so the list still reflects it.
func (m *Model) report(err error, ok string) {
	if err != nil {
		m.status = "storage error: " + err.Error()
		m.failed = true
		return
	}
	m.status = ok
	m.failed = false
}

func (m *Model) clearStatus() {
	m.status = ""
	m.failed = false
}

func (m *Model) clampCursor(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	tasks := m.store.Tasks()
	m.clampCursor(len(tasks))

	var b strings.Builder
	b.WriteString(titleStyle.Render("My Tasks"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Stay organized and productive"))
	b.WriteString("\n")
	if len(tasks) > 0 {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s · %d completed",
			output.CountLabel(len(tasks)), task.Completed(tasks))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if len(tasks) == 0 && m.mode != modeAdd {
		b.WriteString(emptyStyle.Render("No tasks yet"))
		b.WriteString("\n")
		b.WriteString(emptyStyle.Render(subtitleStyle.Render("Press a to add a task")))
		b.WriteString("\n")
	}

	for i, t := range tasks {
		b.WriteString(m.renderTask(i, t))
		b.WriteString("\n")
	}

	if m.mode == modeConfirmDelete {
		if t, ok := task.Find(tasks, m.target); ok {
			fmt.Fprintf(&b, "\nDelete %q? (y/n)\n", output.DisplayText(t.Text))
		}
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.failed {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(subtitleStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderTask(i int, t task.Task) string {
	pointer := "  "
	if i == m.cursor {
		pointer = cursorStyle.Render("> ")
	}

	if m.mode == modeEdit && t.ID == m.target {
		return pointer + output.Checkbox(t.Completed) + " " + m.input.View()
	}

	text := output.DisplayText(t.Text)
	if t.Completed {
		text = doneStyle.Render(text)
	}
	line := pointer + output.Checkbox(t.Completed) + " " + text
	if i == m.cursor && m.mode == modeList {
		line += "\n" + detailStyle.Render(output.Age(t, m.now()))
	}
	return line
}

func (m *Model) renderHelp() string {
	bindings := m.keys.listHelp()
	if m.Editing() {
		bindings = m.keys.inputHelp()
	}
	if m.mode == modeConfirmDelete {
		bindings = []key.Binding{m.keys.Confirm, m.keys.Decline}
	}

	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
