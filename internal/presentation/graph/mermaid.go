package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedSegments []domain.SegmentID
	CurrentSegment  domain.SegmentID
	// State marks the selected branch of each junction with a thick arrow.
	State ports.JunctionState
}

// GenerateMermaid produces a Mermaid flowchart of the network.
// It applies semantic styling:
// - Segment: [Rectangle] with its length
// - Placeholder segment: (Rounded)
// - Junction: {Rhombus}
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(g ports.Inspector, isGeneric func(domain.SegmentID) bool, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, seg := range g.Segments() {
		opener, closer := "[", "]"
		if isGeneric != nil && isGeneric(seg.ID) {
			opener, closer = "(", ")"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %.0f m\"%s\n", segmentNode(seg.ID), opener, escape(string(seg.ID)), seg.Length, closer)
	}

	for _, j := range g.Junctions() {
		safeID := junctionNode(j.ID)
		fmt.Fprintf(&sb, "    %s{\"%s\"}\n", safeID, escape(j.ID))
		if j.In.Valid() {
			fmt.Fprintf(&sb, "    %s --- %s\n", segmentNode(j.In.Segment.ID), safeID)
		}

		selected := -1
		if overlay != nil && overlay.State != nil {
			selected = overlay.State.SelectedBranch(j)
		}
		for i, out := range j.Out {
			if !out.Valid() {
				continue
			}
			arrow := "-->"
			switch {
			case i == selected:
				arrow = "==>"
			case selected >= 0:
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s|%d| %s\n", safeID, arrow, i, segmentNode(out.Segment.ID))
		}
	}

	for _, l := range g.Links() {
		if !l.From.Valid() || !l.To.Valid() {
			continue
		}
		fmt.Fprintf(&sb, "    %s --- %s\n", segmentNode(l.From.Segment.ID), segmentNode(l.To.Segment.ID))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSegments {
			safeID := segmentNode(id)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentSegment != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", segmentNode(overlay.CurrentSegment))
		}
	}

	return sb.String()
}

// Segment and junction IDs share one namespace in Mermaid, so each gets a prefix.
func segmentNode(id domain.SegmentID) string {
	return "s_" + sanitizeMermaidID(string(id))
}

func junctionNode(id string) string {
	return "j_" + sanitizeMermaidID(id)
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
