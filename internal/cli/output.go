package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/lookahead/internal/presentation/timeline"
	"github.com/aretw0/lookahead/internal/presentation/tui"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Format selects how command results are printed.
type Format string

const (
	// FormatPretty prints aligned, colored columns. Colors are dropped when the output is not a terminal.
	FormatPretty Format = "pretty"
	// FormatMarkdown prints a markdown table rendered with glamour.
	FormatMarkdown Format = "markdown"
	// FormatJSON prints machine-readable documents.
	FormatJSON Format = "json"
)

// ParseFormat validates a --output value. An empty value means pretty.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPretty:
		return FormatPretty, nil
	case FormatMarkdown, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (pretty, markdown, json)", s)
	}
}

// Printer writes command results in one format.
type Printer struct {
	w       io.Writer
	format  Format
	profile termenv.Profile
	width   int
	render  func(string) (string, error)
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer, format Format) *Printer {
	p := &Printer{w: w, format: format, profile: termenv.Ascii}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.profile = termenv.ColorProfile()
		p.width, _, _ = term.GetSize(int(f.Fd()))
	}
	return p
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EventsDocument is the JSON form of an event listing.
type EventsDocument struct {
	Events []domain.Record `json:"events"`
	Rows   []timeline.Row  `json:"rows,omitempty"`
}

// Events prints events with their timeline rows.
func (p *Printer) Events(events []domain.Event, rows []timeline.Row) error {
	switch p.format {
	case FormatJSON:
		return p.JSON(EventsDocument{Events: domain.ToRecords(events), Rows: rows})
	case FormatMarkdown:
		return p.Markdown(timeline.Markdown(rows))
	default:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(p.w, "nothing ahead")
			return err
		}
		return tui.WriteTimeline(p.w, rows, p.profile)
	}
}

// Value prints v as JSON, or text in the other formats.
func (p *Printer) Value(v any, text string) error {
	if p.format == FormatJSON {
		return p.JSON(v)
	}
	if p.format == FormatMarkdown {
		return p.Markdown(text)
	}
	_, err := fmt.Fprintln(p.w, strings.TrimRight(text, "\n"))
	return err
}

// JSON prints v indented.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Markdown renders md with glamour.
func (p *Printer) Markdown(md string) error {
	if p.render == nil {
		p.render = tui.NewRenderer(p.width)
	}
	out, err := p.render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(p.w, out)
	return err
}

// Banner prints the banner when w is a terminal.
func (p *Printer) Banner(version string) {
	if p.format != FormatJSON && IsTerminal(p.w) {
		tui.PrintBanner(p.w, version)
	}
}
