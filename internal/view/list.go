package view

import (
	"fmt"
	"time"

	"github.com/s1natex/tasklist-GO/internal/tasks"
)

const EmptyMessage = "No tasks for this filter"

type FilterButton struct {
	Filter tasks.Filter
	Label  string
	Count  int
	// ShowCount is false for Active and Completed.
	ShowCount bool
	Active    bool
}

type FinishButton struct {
	Label    string
	Count    int
	Disabled bool
}

// List is the whole task list screen for one snapshot.
type List struct {
	Filters []FilterButton
	Finish  FinishButton
	Rows    []Row
	Empty   bool
	Message string
}

// BuildList renders snap with the edit state in rows (may be nil).
func BuildList(snap tasks.Snapshot, rows *RowStates) List {
	return buildList(snap, rows, time.Now())
}

func buildList(snap tasks.Snapshot, rows *RowStates, now time.Time) List {
	l := List{
		Filters: filterButtons(snap),
		Finish: FinishButton{
			Label:    fmt.Sprintf("Finish selection (%d)", len(snap.Selection)),
			Count:    len(snap.Selection),
			Disabled: len(snap.Selection) == 0,
		},
	}
	if len(snap.Visible) == 0 {
		l.Empty = true
		l.Message = EmptyMessage
		return l
	}
	l.Rows = make([]Row, 0, len(snap.Visible))
	for _, t := range snap.Visible {
		l.Rows = append(l.Rows, buildRow(t, snap.IsSelected(t.ID), rows.get(t.ID), now))
	}
	return l
}

func filterButtons(snap tasks.Snapshot) []FilterButton {
	out := make([]FilterButton, 0, len(tasks.Filters()))
	for _, f := range tasks.Filters() {
		b := FilterButton{
			Filter: f,
			Active: snap.Filter == f,
		}
		switch f {
		case tasks.FilterAll:
			b.Count, b.ShowCount = snap.Counts.Total, true
		case tasks.FilterUrgent, tasks.FilterMedium, tasks.FilterLow:
			p, _ := f.Priority()
			b.Count, b.ShowCount = snap.Counts.Of(p), true
		case tasks.FilterActive, tasks.FilterCompleted:
		}
		b.Label = string(f)
		if b.ShowCount {
			b.Label = fmt.Sprintf("%s (%d)", f, b.Count)
		}
		out = append(out, b)
	}
	return out
}
