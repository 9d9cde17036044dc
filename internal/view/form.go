package view

import (
	"context"

	"github.com/s1natex/tasklist-GO/internal/tasks"
)

// Adder creates tasks; *tasks.Store satisfies it.
type Adder interface {
	Add(ctx context.Context, text string, priority tasks.Priority) (tasks.Task, error)
}

// AddForm is the pending input: text field plus priority selector.
type AddForm struct {
	Text     string
	Priority tasks.Priority
}

func NewAddForm() AddForm {
	return AddForm{Priority: tasks.DefaultPriority}
}

// Reset clears the text and puts the priority back to Medium.
func (f *AddForm) Reset() {
	f.Text = ""
	f.Priority = tasks.DefaultPriority
}

// CyclePriority moves the selector to the next tier.
func (f *AddForm) CyclePriority() {
	ps := tasks.Priorities()
	for i, p := range ps {
		if p == f.Priority {
			f.Priority = ps[(i+1)%len(ps)]
			return
		}
	}
	f.Priority = tasks.DefaultPriority
}

// Submit adds the task and resets the form. A rejected submit leaves the form
// as typed.
func (f *AddForm) Submit(ctx context.Context, a Adder) (tasks.Task, error) {
	t, err := a.Add(ctx, f.Text, f.Priority)
	if err != nil && t.ID == 0 {
		return t, err
	}
	f.Reset()
	return t, err
}
