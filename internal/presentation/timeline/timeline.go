// Package timeline turns display events into distance-bucketed rows.
package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/lookahead/pkg/domain"
)

// Color is a display hint for a row.
type Color string

const (
	White  Color = "white"
	Red    Color = "red"
	Orange Color = "orange"
	Yellow Color = "yellow"
	Lime   Color = "lime"
)

// Row is one line of the timeline.
type Row struct {
	Span  float64     `json:"span"`
	Kind  domain.Kind `json:"kind"`
	Text  string      `json:"text"`
	Color Color       `json:"color"`
}

// SpanText renders the span rounded to 10 m.
func (r Row) SpanText() string {
	return fmt.Sprintf("%.0f m", r.Span)
}

// Options controls formatting.
type Options struct {
	// CurrentSpeed in km/h colors speed limits. Zero or NaN disables coloring.
	CurrentSpeed float64
	// Describe renders junction rows. Junction rows show the junction ID when nil.
	Describe func(*domain.Junction) domain.JunctionDescription
}

// RoundSpan rounds to the nearest 10 m, ties to even.
func RoundSpan(span float64) float64 {
	return math.RoundToEven(span/10) * 10
}

// SpeedColor grades how urgent a limit is for a traveller at currentSpeed.
// Overspeed limits turn red under 500 m, orange under 1000 m and yellow beyond;
// limits well above the current speed are lime.
func SpeedColor(currentSpeed, limit, span float64) Color {
	if currentSpeed == 0 || math.IsNaN(currentSpeed) {
		return White
	}
	currentSpeed = math.Abs(currentSpeed)
	switch {
	case currentSpeed > limit+5:
		switch {
		case span < 500:
			return Red
		case span < 1000:
			return Orange
		default:
			return Yellow
		}
	case currentSpeed < limit-10:
		return Lime
	default:
		return White
	}
}

// Format renders events as rows.
func Format(events []domain.Event, opts Options) []Row {
	f := &formatter{opts: opts, rows: make([]Row, 0, len(events))}
	for _, ev := range events {
		ev.Accept(f)
	}
	return f.rows
}

// Markdown renders rows as a two-column table.
func Markdown(rows []Row) string {
	var sb strings.Builder
	sb.WriteString("| Distance | Event |\n")
	sb.WriteString("|---:|:---|\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "| %s | %s |\n", r.SpanText(), strings.ReplaceAll(r.Text, "|", "\\|"))
	}
	return sb.String()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type formatter struct {
	opts Options
	rows []Row
}

func (f *formatter) add(ev domain.Event, text string, color Color) {
	f.rows = append(f.rows, Row{
		Span:  RoundSpan(ev.Pos().Span),
		Kind:  ev.Kind(),
		Text:  text,
		Color: color,
	})
}

func (f *formatter) VisitSegmentEntered(e domain.SegmentEntered) {
	f.add(e, string(e.Segment), White)
}

func (f *formatter) VisitJunctionReached(e domain.JunctionReached) {
	text := "junction"
	if e.Junction != nil {
		text = e.Junction.ID
		if f.opts.Describe != nil {
			text = f.opts.Describe(e.Junction).String()
		}
	}
	f.add(e, text, White)
}

func (f *formatter) VisitSpeedLimit(e domain.SpeedLimit) {
	f.add(e, number(e.Value)+" km/h", SpeedColor(f.opts.CurrentSpeed, e.Value, e.Span))
}

func (f *formatter) VisitDualSpeedLimit(e domain.DualSpeedLimit) {
	f.add(e, fmt.Sprintf("%s / %s km/h", number(e.Left), number(e.Right)), White)
}

func (f *formatter) VisitGrade(e domain.Grade) {
	f.add(e, fmt.Sprintf("%.1f %%", e.Value), White)
}
