package tasks

import (
	"fmt"
	"time"
)

type Task struct {
	ID        int64    `json:"id"`
	Text      string   `json:"text"`
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`
}

// CreatedAt recovers the creation time from the id, which is a Unix
// millisecond timestamp.
func (t Task) CreatedAt() time.Time {
	return time.UnixMilli(t.ID)
}

type Priority string

const (
	PriorityUrgent Priority = "Urgent"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// DefaultPriority is what the add form falls back to after each add.
const DefaultPriority = PriorityMedium

// Priorities lists the tiers in display order.
func Priorities() []Priority {
	return []Priority{PriorityUrgent, PriorityMedium, PriorityLow}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

type Filter string

const (
	FilterAll       Filter = "All"
	FilterActive    Filter = "Active"
	FilterCompleted Filter = "Completed"
	FilterUrgent    Filter = Filter(PriorityUrgent)
	FilterMedium    Filter = Filter(PriorityMedium)
	FilterLow       Filter = Filter(PriorityLow)
)

// Filters lists every filter in the order the filter row shows them.
func Filters() []Filter {
	return []Filter{FilterAll, FilterUrgent, FilterMedium, FilterLow, FilterActive, FilterCompleted}
}

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted, FilterUrgent, FilterMedium, FilterLow:
		return true
	}
	return false
}

func ParseFilter(s string) (Filter, error) {
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
	return f, nil
}

// Match reports whether t belongs in the view selected by f. Priority
// filters ignore completion state.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterAll:
		return true
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterUrgent, FilterMedium, FilterLow:
		return t.Priority == Priority(f)
	}
	return false
}

// Priority returns the tier a priority filter selects, if any.
func (f Filter) Priority() (Priority, bool) {
	switch f {
	case FilterUrgent, FilterMedium, FilterLow:
		return Priority(f), true
	}
	return "", false
}

// Counts is derived from the collection on every read.
type Counts struct {
	Total  int `json:"total"`
	Urgent int `json:"urgent"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Of returns the count for one priority tier.
func (c Counts) Of(p Priority) int {
	switch p {
	case PriorityUrgent:
		return c.Urgent
	case PriorityMedium:
		return c.Medium
	case PriorityLow:
		return c.Low
	}
	return 0
}

func countTasks(list []Task) Counts {
	c := Counts{Total: len(list)}
	for _, t := range list {
		switch t.Priority {
		case PriorityUrgent:
			c.Urgent++
		case PriorityMedium:
			c.Medium++
		case PriorityLow:
			c.Low++
		}
	}
	return c
}

func filterTasks(list []Task, f Filter) []Task {
	out := make([]Task, 0, len(list))
	for _, t := range list {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
