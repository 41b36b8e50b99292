package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/lookahead/internal/presentation/timeline"
	"github.com/muesli/termenv"
)

var palette = map[timeline.Color]string{
	timeline.Red:    "#ef4444",
	timeline.Orange: "#f97316",
	timeline.Yellow: "#facc15",
	timeline.Lime:   "#84cc16",
}

// WriteTimeline prints rows as two aligned columns, coloring texts for profile.
// termenv.Ascii disables colors.
func WriteTimeline(w io.Writer, rows []timeline.Row, profile termenv.Profile) error {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.SpanText()))
	}

	for _, r := range rows {
		text := termenv.String(r.Text)
		if hex, ok := palette[r.Color]; ok {
			text = text.Foreground(profile.Color(hex))
		}
		if _, err := fmt.Fprintf(w, "%*s  %s\n", width, r.SpanText(), text); err != nil {
			return err
		}
	}
	return nil
}
