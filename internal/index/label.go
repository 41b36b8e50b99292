package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/lookahead/pkg/domain"
)

// ParseLabel reads a sign label into events.
//
// A label holds one or two lines:
//
//	"8"        speed limit 8*scale
//	"6\n10"    dual speed limit 6*scale for branch 0, 10*scale for branch 1
//	"6\n+2.5"  speed limit 6*scale and a grade of +2.5 %
//	"X\n10"    unreadable top line, speed limit 10*scale from the bottom line
func ParseLabel(label string, direction bool, span, scale float64) ([]domain.Event, error) {
	parts := strings.Split(strings.ReplaceAll(label, "\r\n", "\n"), "\n")
	for i := range parts {
		parts[i] = strings.TrimSpace(strings.ReplaceAll(parts[i], "−", "-"))
	}

	switch len(parts) {
	case 1:
		if v, ok := parseLimit(parts[0]); ok {
			return []domain.Event{domain.NewSpeedLimit(span, direction, v*scale)}, nil
		}

	case 2:
		top, topOK := parseLimit(parts[0])
		bottom := parts[1]
		switch {
		case topOK && isSigned(bottom):
			if g, err := strconv.ParseFloat(bottom, 64); err == nil {
				return []domain.Event{
					domain.NewSpeedLimit(span, direction, top*scale),
					domain.NewGrade(span, direction, g),
				}, nil
			}
		case topOK:
			if b, ok := parseLimit(bottom); ok {
				return []domain.Event{domain.NewDualSpeedLimit(span, direction, top*scale, b*scale)}, nil
			}
		default:
			if b, ok := parseLimit(bottom); ok {
				return []domain.Event{domain.NewSpeedLimit(span, direction, b*scale)}, nil
			}
		}
	}

	return nil, fmt.Errorf("%q: %w", label, domain.ErrUnparsableLabel)
}

func parseLimit(s string) (float64, bool) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return float64(v), true
}

func isSigned(s string) bool {
	return strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-")
}
