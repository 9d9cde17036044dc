// Package view turns store snapshots into what the task list shows: the
// filter row, the bulk-finish button, the rows and their edit mode. It does
// not draw anything; the web page and the terminal UI render its output.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/s1natex/tasklist-GO/internal/tasks"
)

type Tone string

const (
	ToneError   Tone = "error"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneNeutral Tone = "neutral"
)

type Badge struct {
	Label string
	Tone  Tone
}

// PriorityBadge maps a tier to its badge.
func PriorityBadge(p tasks.Priority) Badge {
	switch p {
	case tasks.PriorityUrgent:
		return Badge{Label: string(p), Tone: ToneError}
	case tasks.PriorityMedium:
		return Badge{Label: string(p), Tone: ToneWarning}
	case tasks.PriorityLow:
		return Badge{Label: string(p), Tone: ToneSuccess}
	}
	return Badge{Label: string(p), Tone: ToneNeutral}
}

var doneBadge = Badge{Label: "Done", Tone: ToneNeutral}

// Row is one task as the list shows it.
type Row struct {
	ID               int64
	Text             string
	Checked          bool
	CheckboxDisabled bool
	StruckThrough    bool
	Priority         Badge
	Done             *Badge
	Age              string

	Editing     bool
	Draft       string
	EditAllowed bool
}

func buildRow(t tasks.Task, selected bool, edit *editState, now time.Time) Row {
	row := Row{
		ID:               t.ID,
		Text:             t.Text,
		Checked:          selected,
		CheckboxDisabled: t.Completed,
		StruckThrough:    t.Completed,
		Priority:         PriorityBadge(t.Priority),
		Age:              humanize.RelTime(t.CreatedAt(), now, "ago", "from now"),
		EditAllowed:      !t.Completed,
	}
	if t.Completed {
		b := doneBadge
		row.Done = &b
	}
	if edit != nil {
		row.Editing = true
		row.Draft = edit.draft
	}
	return row
}

// Editor applies an edit; *tasks.Store satisfies it.
type Editor interface {
	Edit(ctx context.Context, id int64, newText string) (tasks.EditResult, error)
}

type editState struct {
	draft string
}

// RowStates holds the per-row edit mode, keyed by task id so it survives
// re-renders and filter changes.
type RowStates struct {
	mu    sync.Mutex
	edits map[int64]*editState
}

func NewRowStates() *RowStates {
	return &RowStates{edits: make(map[int64]*editState)}
}

// Begin switches the row to edit mode with the draft pre-filled. Completed
// tasks cannot be edited.
func (rs *RowStates) Begin(t tasks.Task) bool {
	if t.Completed {
		return false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.edits[t.ID] = &editState{draft: t.Text}
	return true
}

func (rs *RowStates) SetDraft(id int64, draft string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if e, ok := rs.edits[id]; ok {
		e.draft = draft
	}
}

func (rs *RowStates) Editing(id int64) (string, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	e, ok := rs.edits[id]
	if !ok {
		return "", false
	}
	return e.draft, true
}

// Commit saves the row's draft through ed. The row leaves edit mode only when
// the edit was saved or the task is gone; a rejected draft keeps it open.
func (rs *RowStates) Commit(ctx context.Context, ed Editor, id int64) (tasks.EditResult, error) {
	draft, ok := rs.Editing(id)
	if !ok {
		return tasks.EditNotFound, nil
	}
	res, err := ed.Edit(ctx, id, draft)
	switch res {
	case tasks.EditSaved, tasks.EditNotFound, tasks.EditRejectedCompleted:
		rs.Cancel(id)
	}
	return res, err
}

// Cancel discards the draft without editing.
func (rs *RowStates) Cancel(id int64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.edits, id)
}

// Prune drops edit state for tasks no longer in the collection.
func (rs *RowStates) Prune(snap tasks.Snapshot) {
	live := make(map[int64]struct{}, len(snap.Tasks))
	for _, t := range snap.Tasks {
		live[t.ID] = struct{}{}
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for id := range rs.edits {
		if _, ok := live[id]; !ok {
			delete(rs.edits, id)
		}
	}
}

func (rs *RowStates) get(id int64) *editState {
	if rs == nil {
		return nil
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if e, ok := rs.edits[id]; ok {
		cp := *e
		return &cp
	}
	return nil
}
