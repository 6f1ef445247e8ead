package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for the verdict line.
var (
	ColorSuccess = lipgloss.Color("34")  // Green
	ColorError   = lipgloss.Color("196") // Red
)

// ShouldStyle reports whether output written to w may carry ANSI styling.
//
// Returns false if:
//   - noColor is set (--no-color or the no_color config key)
//   - NO_COLOR is set in the environment
//   - w is not a terminal (pipes, files, buffers)
func ShouldStyle(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func verdictStyle(w io.Writer, clean bool) lipgloss.Style {
	style := lipgloss.NewRenderer(w).NewStyle().Bold(true)
	if clean {
		return style.Foreground(ColorSuccess)
	}
	return style.Foreground(ColorError)
}
