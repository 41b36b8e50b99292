package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the lookahead banner with its version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _             _              _                _ ", "#4ade80"},
		{"| | ___   ___ | | ____ _  ___| |__   ___  __ _| |", "#22d3ee"},
		{"| |/ _ \\ / _ \\| |/ / _` |/ __| '_ \\ / _ \\/ _` | |", "#38bdf8"},
		{"| | (_) | (_) |   < (_| | (__| | | |  __/ (_| |_|", "#60a5fa"},
		{"|_|\\___/ \\___/|_|\\_\\__,_|\\___|_| |_|\\___|\\__,_(_)", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
