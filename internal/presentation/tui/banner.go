package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the vitae banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`        _ _              `, "#34d399"},
		{` __   _(_) |_ __ _  ___  `, "#2dd4bf"},
		{` \ \ / / | __/ _' |/ _ \ `, "#22d3ee"},
		{`  \ V /| | || (_| |  __/ `, "#38bdf8"},
		{`   \_/ |_|\__\__,_|\___| `, "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colours used for change labels.
const (
	ColorRemoved  = "#f87171"
	ColorModified = "#fbbf24"
	ColorAdded    = "#34d399"
	ColorMuted    = "#9ca3af"
)

// Colorize paints s with a hex colour when the terminal supports it.
func Colorize(s, hex string) string {
	return termenv.String(s).Foreground(termenv.ColorProfile().Color(hex)).String()
}
