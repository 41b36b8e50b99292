package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
)

// Graph is a network that can also list its contents.
type Graph interface {
	ports.Network
	ports.Inspector
}

// ValidateNetwork checks for degenerate segments and for segments no traveller can reach
// starting from startID. An empty startID uses the first segment.
// Dead ends are legal and are not reported.
func ValidateNetwork(g Graph, startID domain.SegmentID) error {
	segments := g.Segments()
	if len(segments) == 0 {
		return fmt.Errorf("network has no segments")
	}

	if startID == "" {
		startID = segments[0].ID
	}
	start, ok := g.Segment(startID)
	if !ok {
		return fmt.Errorf("start segment '%s' not found: %w", startID, domain.ErrUnknownSegment)
	}

	var errors []string

	for _, seg := range segments {
		if seg.Length <= 0 {
			errors = append(errors, fmt.Sprintf("Zero-length segment: '%s'", seg.ID))
		}
	}

	for _, j := range g.Junctions() {
		if j.Out[0].Segment == j.Out[1].Segment && j.Out[0].First == j.Out[1].First {
			errors = append(errors, fmt.Sprintf("Junction '%s' has identical branches", j.ID))
		}
	}

	// Crawler. Trains may reverse, so a reached segment is explored from both ends.
	visited := make(map[domain.BranchKey]bool)
	reached := map[domain.SegmentID]bool{start.ID: true}
	queue := []domain.Branch{{Segment: start, First: true}, {Segment: start, First: false}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current.Key()] {
			continue
		}
		visited[current.Key()] = true

		for _, next := range g.NextBranches(current) {
			if !next.Valid() {
				continue
			}
			reached[next.Segment.ID] = true
			for _, b := range []domain.Branch{next, {Segment: next.Segment, First: !next.First}} {
				if !visited[b.Key()] {
					queue = append(queue, b)
				}
			}
		}
	}

	for _, seg := range segments {
		if !reached[seg.ID] {
			errors = append(errors, fmt.Sprintf("Unreachable segment: '%s'", seg.ID))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}

	return nil
}
