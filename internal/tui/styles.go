package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/s1natex/tasklist-GO/internal/view"
)

type styles struct {
	Title        lipgloss.Style
	Cursor       lipgloss.Style
	Text         lipgloss.Style
	Struck       lipgloss.Style
	ActiveFilter lipgloss.Style
	Filter       lipgloss.Style
	Disabled     lipgloss.Style
	Notice       lipgloss.Style
	Help         lipgloss.Style
	Empty        lipgloss.Style
	Age          lipgloss.Style
	badges       map[view.Tone]lipgloss.Style
}

func defaultStyles() styles {
	badge := lipgloss.NewStyle().Padding(0, 1)
	return styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Cursor:       lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true),
		Text:         lipgloss.NewStyle().Bold(true),
		Struck:       lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241")),
		ActiveFilter: lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("63")),
		Filter:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Disabled:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Notice:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Help:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Empty:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true).Padding(1, 2),
		Age:          lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		badges: map[view.Tone]lipgloss.Style{
			view.ToneError:   badge.Foreground(lipgloss.Color("9")),
			view.ToneWarning: badge.Foreground(lipgloss.Color("11")),
			view.ToneSuccess: badge.Foreground(lipgloss.Color("10")),
			view.ToneNeutral: badge.Foreground(lipgloss.Color("250")),
		},
	}
}

func (s styles) badge(b view.Badge) string {
	st, ok := s.badges[b.Tone]
	if !ok {
		st = s.badges[view.ToneNeutral]
	}
	return st.Render(b.Label)
}
