package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Colour palette shared by the interactive commands.
var (
	colourPrimary = lipgloss.Color("#7C3AED") // Purple
	colourAccent  = lipgloss.Color("#06B6D4") // Cyan
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess = lipgloss.Color("#A6E3A1") // Green
	colourWarning = lipgloss.Color("#F9E2AF") // Yellow
	colourError   = lipgloss.Color("#F38BA8") // Red
)

// styles holds the rendering used for one output stream. Plain output has
// zero-value styles, which render text unchanged.
type styles struct {
	Title   lipgloss.Style
	Prompt  lipgloss.Style
	Answer  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// stylesFor styles w only when it is a terminal, so piped output stays plain.
func stylesFor(w io.Writer) styles {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return styles{}
	}
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colourPrimary),
		Prompt:  lipgloss.NewStyle().Bold(true).Foreground(colourAccent),
		Answer:  lipgloss.NewStyle().PaddingLeft(2),
		Muted:   lipgloss.NewStyle().Foreground(colourMuted),
		Success: lipgloss.NewStyle().Foreground(colourSuccess),
		Warning: lipgloss.NewStyle().Foreground(colourWarning),
		Error:   lipgloss.NewStyle().Foreground(colourError),
	}
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
