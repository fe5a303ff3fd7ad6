package ui

import "github.com/charmbracelet/lipgloss"

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F87", "#FFA500", "#626262")

// Palette holds the named styles used by the views.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

// NewPalette builds a [Palette] from foreground colors for titles, success, errors, warnings and help.
func NewPalette(title, ok, err, warn, help string) *Palette {
	return &Palette{
		title: newStyle(title).Bold(true).MarginBottom(1),
		ok:    newStyle(ok).Bold(true),
		err:   newStyle(err).Bold(true),
		warn:  newStyle(warn),
		help:  newStyle(help).Italic(true),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}
