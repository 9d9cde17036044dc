// Package tui is the terminal front-end for the task list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/s1natex/tasklist-GO/internal/tasks"
	"github.com/s1natex/tasklist-GO/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

// filterKeys maps the digit keys to filters.
var filterKeys = map[string]tasks.Filter{
	"0": tasks.FilterAll,
	"1": tasks.FilterActive,
	"2": tasks.FilterCompleted,
	"3": tasks.FilterUrgent,
	"4": tasks.FilterMedium,
	"5": tasks.FilterLow,
}

type snapshotMsg struct {
	snap tasks.Snapshot
}

// Model is the bubbletea model. It never mutates task state itself: every
// action goes through the store, and the list is redrawn from the snapshots
// the store's listener forwards.
type Model struct {
	ctx   context.Context
	store *tasks.Store

	updates    chan tasks.Snapshot
	listenerID int

	snap   tasks.Snapshot
	list   view.List
	rows   *view.RowStates
	form   view.AddForm
	cursor int
	mode   mode
	editID int64
	notice string

	input textinput.Model
	edit  textinput.Model

	keys   keyMap
	styles styles
	width  int
}

func New(ctx context.Context, store *tasks.Store) *Model {
	input := textinput.New()
	input.Placeholder = "add a task..."
	input.CharLimit = 200
	input.Prompt = "+ "

	edit := textinput.New()
	edit.CharLimit = 200
	edit.Prompt = ""

	m := &Model{
		ctx:     ctx,
		store:   store,
		updates: make(chan tasks.Snapshot, 1),
		rows:    view.NewRowStates(),
		form:    view.NewAddForm(),
		input:   input,
		edit:    edit,
		keys:    defaultKeyMap(),
		styles:  defaultStyles(),
	}
	m.listenerID = store.AddListener(m.forward)
	m.apply(store.Snapshot())
	return m
}

// Close unregisters the store listener.
func (m *Model) Close() {
	m.store.RemoveListener(m.listenerID)
}

// forward keeps only the newest pending snapshot; each one is complete, so
// dropping an older one loses nothing.
func (m *Model) forward(snap tasks.Snapshot) {
	for {
		select {
		case m.updates <- snap:
			return
		default:
			select {
			case <-m.updates:
			default:
			}
		}
	}
}

func (m *Model) waitForSnapshot() tea.Msg {
	return snapshotMsg{snap: <-m.updates}
}

func (m *Model) Init() tea.Cmd {
	return m.waitForSnapshot
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width/2)
		m.edit.Width = max(20, msg.Width/2)
		return m, nil
	case snapshotMsg:
		m.apply(msg.snap)
		return m, m.waitForSnapshot
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeEdit:
			return m.updateEdit(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) apply(snap tasks.Snapshot) {
	m.snap = snap
	m.rows.Prune(snap)
	if m.mode == modeEdit {
		if _, ok := m.rows.Editing(m.editID); !ok {
			m.leaveEdit()
		}
	}
	m.list = view.BuildList(snap, m.rows)
	m.cursor = min(m.cursor, max(0, len(m.list.Rows)-1))
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.list.Rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.SetValue(m.form.Text)
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Filter):
		m.report(m.store.SetFilter(filterKeys[msg.String()]))
	case key.Matches(msg, m.keys.Finish):
		_, err := m.store.FinishSelected(m.ctx)
		m.report(err)
	}

	row, ok := m.current()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.report(m.store.ToggleSelect(row.ID))
	case key.Matches(msg, m.keys.Delete):
		m.report(m.store.Delete(m.ctx, row.ID))
	case key.Matches(msg, m.keys.Edit):
		return m, m.beginEdit(row)
	}
	return m, nil
}

func (m *Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.form.Text = m.input.Value()
		m.input.Blur()
		m.mode = modeList
		return m, nil
	case key.Matches(msg, m.keys.Priority):
		m.form.CyclePriority()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.form.Text = m.input.Value()
		_, err := m.form.Submit(m.ctx, m.store)
		m.notice = ""
		m.report(err)
		m.input.SetValue(m.form.Text)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.rows.Cancel(m.editID)
		m.leaveEdit()
		m.list = view.BuildList(m.snap, m.rows)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.rows.SetDraft(m.editID, m.edit.Value())
		res, err := m.rows.Commit(m.ctx, m.store, m.editID)
		switch {
		case err != nil:
			m.report(err)
		case res == tasks.EditRejectedEmpty:
			m.notice = "Task text cannot be empty; keep editing or press esc."
			return m, nil
		}
		m.leaveEdit()
		m.list = view.BuildList(m.snap, m.rows)
		return m, nil
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	m.rows.SetDraft(m.editID, m.edit.Value())
	return m, cmd
}

func (m *Model) beginEdit(row view.Row) tea.Cmd {
	if !row.EditAllowed {
		m.notice = "Completed tasks cannot be edited."
		return nil
	}
	if !m.rows.Begin(tasks.Task{ID: row.ID, Text: row.Text}) {
		return nil
	}
	m.mode = modeEdit
	m.editID = row.ID
	m.edit.SetValue(row.Text)
	m.edit.CursorEnd()
	m.list = view.BuildList(m.snap, m.rows)
	return m.edit.Focus()
}

func (m *Model) leaveEdit() {
	m.mode = modeList
	m.editID = 0
	m.edit.Blur()
}

func (m *Model) current() (view.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.list.Rows) {
		return view.Row{}, false
	}
	return m.list.Rows[m.cursor], true
}

func (m *Model) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, tasks.ErrTextRequired):
		m.notice = "Task text cannot be empty."
	case errors.Is(err, tasks.ErrTaskCompleted):
		m.notice = "Completed tasks cannot be selected."
	default:
		m.notice = fmt.Sprintf("Error: %v", err)
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Tasks"))
	b.WriteString("\n\n")

	b.WriteString(m.input.View())
	b.WriteString("  ")
	b.WriteString(m.styles.badge(view.PriorityBadge(m.form.Priority)))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.styles.Notice.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	writeFilters(&b, m.list, m.styles)
	writeRows(&b, m)
	writeHelp(&b, m)
	return b.String()
}

func writeFilters(b *strings.Builder, l view.List, st styles) {
	parts := make([]string, 0, len(l.Filters)+1)
	for _, f := range l.Filters {
		if f.Active {
			parts = append(parts, st.ActiveFilter.Render(f.Label))
		} else {
			parts = append(parts, st.Filter.Render(f.Label))
		}
	}
	finish := l.Finish.Label
	if l.Finish.Disabled {
		finish = st.Disabled.Render(finish)
	}
	parts = append(parts, "│ "+finish)
	b.WriteString(strings.Join(parts, "  "))
	b.WriteString("\n\n")
}

func writeRows(b *strings.Builder, m *Model) {
	if m.list.Empty {
		b.WriteString(m.styles.Empty.Render(m.list.Message))
		b.WriteString("\n")
		return
	}
	for i, row := range m.list.Rows {
		cursor := "  "
		if i == m.cursor {
			cursor = m.styles.Cursor.Render("> ")
		}
		box := "[ ]"
		switch {
		case row.CheckboxDisabled:
			box = m.styles.Disabled.Render("[-]")
		case row.Checked:
			box = "[x]"
		}

		var text string
		switch {
		case row.Editing && row.ID == m.editID:
			text = m.edit.View()
		case row.StruckThrough:
			text = m.styles.Struck.Render(row.Text)
		default:
			text = m.styles.Text.Render(row.Text)
		}

		line := fmt.Sprintf("%s%s %s %s", cursor, box, text, m.styles.badge(row.Priority))
		if row.Done != nil {
			line += " " + m.styles.badge(*row.Done)
		}
		line += " " + m.styles.Age.Render(row.Age)
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func writeHelp(b *strings.Builder, m *Model) {
	bindings := m.keys.listHelp()
	switch m.mode {
	case modeAdd:
		bindings = m.keys.addHelp()
	case modeEdit:
		bindings = m.keys.editHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(strings.Join(parts, " • ")))
	b.WriteString("\n")
}
