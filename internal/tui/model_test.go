package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s1natex/tasklist-GO/internal/localstore"
	"github.com/s1natex/tasklist-GO/internal/tasks"
)

func newTestModel(t *testing.T) (*Model, *tasks.Store) {
	t.Helper()
	store := tasks.NewStore(localstore.NewMemory())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	m := New(context.Background(), store)
	t.Cleanup(m.Close)
	return m, store
}

// send feeds one message and then delivers any snapshot the store pushed.
func send(m *Model, msg tea.Msg) {
	m.Update(msg)
	select {
	case snap := <-m.updates:
		m.Update(snapshotMsg{snap: snap})
	default:
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		send(m, runes(string(r)))
	}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestAddFlow(t *testing.T) {
	m, store := newTestModel(t)

	if !strings.Contains(m.View(), "No tasks for this filter") {
		t.Fatalf("expected empty state")
	}

	send(m, runes("a"))
	if m.mode != modeAdd {
		t.Fatalf("expected add mode")
	}
	typeText(m, "Buy milk")
	send(m, tab) // Medium -> Low
	send(m, tab) // Low -> Urgent
	send(m, enter)

	list := store.Tasks()
	if len(list) != 1 || list[0].Text != "Buy milk" || list[0].Priority != tasks.PriorityUrgent {
		t.Fatalf("unexpected collection %+v", list)
	}
	if m.form.Priority != tasks.PriorityMedium || m.input.Value() != "" {
		t.Fatalf("form not reset: %+v input=%q", m.form, m.input.Value())
	}

	// blank submit is refused with a notice
	send(m, enter)
	if len(store.Tasks()) != 1 || m.notice == "" {
		t.Fatalf("blank add accepted or silent: notice=%q", m.notice)
	}

	send(m, esc)
	if m.mode != modeList {
		t.Fatalf("esc did not leave add mode")
	}
	if !strings.Contains(m.View(), "Buy milk") {
		t.Fatalf("view missing new task")
	}
}

func TestQuitKeyIsTextWhileAdding(t *testing.T) {
	m, _ := newTestModel(t)
	send(m, runes("a"))
	send(m, runes("q"))
	if m.mode != modeAdd || m.input.Value() != "q" {
		t.Fatalf("q was not typed: mode=%v value=%q", m.mode, m.input.Value())
	}
}

func TestSelectFinishDelete(t *testing.T) {
	m, store := newTestModel(t)
	ctx := context.Background()
	first, _ := store.Add(ctx, "first", tasks.PriorityLow)
	second, _ := store.Add(ctx, "second", tasks.PriorityLow)
	send(m, snapshotMsg{snap: store.Snapshot()})

	// rows: second, first
	send(m, runes("j"))
	send(m, space)
	if !store.IsSelected(first.ID) {
		t.Fatalf("space did not select the row under the cursor")
	}

	send(m, runes("f"))
	for _, task := range store.Tasks() {
		if (task.ID == first.ID) != task.Completed {
			t.Fatalf("finish completed the wrong tasks: %+v", task)
		}
	}

	// completed rows refuse selection and edit
	send(m, space)
	if store.IsSelected(first.ID) || m.notice == "" {
		t.Fatalf("completed task selectable or silent")
	}
	send(m, runes("e"))
	if m.mode == modeEdit {
		t.Fatalf("completed task entered edit mode")
	}

	send(m, runes("k"))
	send(m, runes("d"))
	list := store.Tasks()
	if len(list) != 1 || list[0].ID == second.ID {
		t.Fatalf("delete removed the wrong task: %+v", list)
	}
}

func TestEditFlow(t *testing.T) {
	m, store := newTestModel(t)
	task, _ := store.Add(context.Background(), "old", tasks.PriorityMedium)
	send(m, snapshotMsg{snap: store.Snapshot()})

	send(m, runes("e"))
	if m.mode != modeEdit || m.edit.Value() != "old" {
		t.Fatalf("edit mode not pre-filled: mode=%v value=%q", m.mode, m.edit.Value())
	}

	m.edit.SetValue("   ")
	send(m, enter)
	if m.mode != modeEdit {
		t.Fatalf("blank commit left edit mode")
	}
	if store.Tasks()[0].Text != "old" {
		t.Fatalf("blank commit changed text")
	}

	m.edit.SetValue("new")
	send(m, enter)
	if m.mode != modeList || store.Tasks()[0].Text != "new" {
		t.Fatalf("commit failed: mode=%v text=%q", m.mode, store.Tasks()[0].Text)
	}

	send(m, runes("e"))
	m.edit.SetValue("discarded")
	send(m, esc)
	if m.mode != modeList || store.Tasks()[0].Text != "new" {
		t.Fatalf("cancel applied the draft")
	}
	if _, editing := m.rows.Editing(task.ID); editing {
		t.Fatalf("cancel kept edit state")
	}
}

func TestFilterKeys(t *testing.T) {
	m, store := newTestModel(t)
	ctx := context.Background()
	store.Add(ctx, "u", tasks.PriorityUrgent)
	store.Add(ctx, "l", tasks.PriorityLow)

	send(m, runes("5"))
	if store.Filter() != tasks.FilterLow {
		t.Fatalf("expected Low filter, got %s", store.Filter())
	}
	if len(m.list.Rows) != 1 || m.list.Rows[0].Text != "l" {
		t.Fatalf("view not narrowed: %+v", m.list.Rows)
	}

	send(m, runes("2"))
	if !m.list.Empty {
		t.Fatalf("expected empty completed view")
	}
	send(m, runes("0"))
	if len(m.list.Rows) != 2 {
		t.Fatalf("expected all rows back")
	}
}

func TestExternalChangesRedraw(t *testing.T) {
	m, store := newTestModel(t)
	store.Add(context.Background(), "from elsewhere", tasks.PriorityLow)

	msg := m.waitForSnapshot()
	m.Update(msg)
	if len(m.list.Rows) != 1 {
		t.Fatalf("listener snapshot not applied")
	}
}
