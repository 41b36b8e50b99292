package timeline

import (
	"math"
	"testing"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundSpan(t *testing.T) {
	assert.Equal(t, 0.0, RoundSpan(4.9))
	assert.Equal(t, 120.0, RoundSpan(118))
	assert.Equal(t, 20.0, RoundSpan(25), "ties go to even")
	assert.Equal(t, 40.0, RoundSpan(35))
}

func TestSpeedColor(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		limit   float64
		span    float64
		want    Color
	}{
		{"Unknown speed", 0, 60, 100, White},
		{"NaN speed", math.NaN(), 60, 100, White},
		{"Close overspeed", 80, 60, 499, Red},
		{"Mid overspeed", 80, 60, 500, Orange},
		{"Far overspeed", 80, 60, 1000, Yellow},
		{"Reversing overspeed", -80, 60, 100, Red},
		{"Within tolerance", 65, 60, 100, White},
		{"Well under", 40, 60, 100, Lime},
		{"Just under", 50, 60, 100, White},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpeedColor(tt.current, tt.limit, tt.span))
		})
	}
}

func TestFormat(t *testing.T) {
	j := &domain.Junction{ID: "J"}
	events := []domain.Event{
		domain.NewSegmentEntered(0, "A"),
		domain.NewSpeedLimit(103, true, 62.5),
		domain.NewDualSpeedLimit(398, true, 60, 100),
		domain.NewJunctionReached(500, true, j),
		domain.NewGrade(512, true, -1.5),
	}

	rows := Format(events, Options{
		CurrentSpeed: 90,
		Describe: func(*domain.Junction) domain.JunctionDescription {
			return domain.JunctionDescription{Junction: "J", Left: "B", Right: "C", LeftKnown: true, RightKnown: true, Selected: 1}
		},
	})
	require.Len(t, rows, 5)

	assert.Equal(t, Row{Span: 0, Kind: domain.KindSegmentEntered, Text: "A", Color: White}, rows[0])
	assert.Equal(t, Row{Span: 100, Kind: domain.KindSpeedLimit, Text: "62.5 km/h", Color: Red}, rows[1])
	assert.Equal(t, "60 / 100 km/h", rows[2].Text)
	assert.Equal(t, 400.0, rows[2].Span)
	assert.Equal(t, "B >>> C", rows[3].Text)
	assert.Equal(t, "-1.5 %", rows[4].Text)
	assert.Equal(t, "510 m", rows[4].SpanText())
}

func TestFormat_JunctionWithoutDescriber(t *testing.T) {
	rows := Format([]domain.Event{domain.NewJunctionReached(10, true, &domain.Junction{ID: "J7"})}, Options{})
	require.Len(t, rows, 1)
	assert.Equal(t, "J7", rows[0].Text)
}

func TestMarkdown(t *testing.T) {
	md := Markdown([]Row{
		{Span: 0, Text: "A"},
		{Span: 120, Text: "80 km/h"},
		{Span: 500, Text: "a|b"},
	})
	assert.Contains(t, md, "| Distance | Event |")
	assert.Contains(t, md, "| 0 m | A |")
	assert.Contains(t, md, "| 120 m | 80 km/h |")
	assert.Contains(t, md, `| 500 m | a\|b |`)
}
