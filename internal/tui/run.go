package tui

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/s1natex/tasklist-GO/internal/tasks"
)

var ErrNotTTY = errors.New("tui requires a TTY")

// IsTTY reports whether f is a terminal.
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, store *tasks.Store) error {
	if !IsTTY(os.Stdout) {
		return ErrNotTTY
	}
	m := New(ctx, store)
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
