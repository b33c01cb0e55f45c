package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the threeview banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Cyan to violet, one color per line.
	lines := []struct{ text, color string }{
		{"  _   _                          _               ", "#22d3ee"},
		{" | |_| |__  _ __ ___  _____   _(_) _____      __", "#38bdf8"},
		{" | __| '_ \\| '__/ _ \\/ _ \\ \\ / / |/ _ \\ \\ /\\ / /", "#818cf8"},
		{" | |_| | | | | |  __/  __/\\ V /| |  __/\\ V  V / ", "#a78bfa"},
		{"  \\__|_| |_|_|  \\___|\\___| \\_/ |_|\\___| \\_/\\_/  ", "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Swatch returns a small block painted in color, or an empty string when the
// terminal has no color support.
func Swatch(color string) string {
	p := termenv.ColorProfile()
	if p == termenv.Ascii {
		return ""
	}
	return termenv.String("██").Foreground(p.Color(color)).String()
}
