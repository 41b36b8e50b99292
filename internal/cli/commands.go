package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/lookahead/internal/presentation/graph"
	"github.com/aretw0/lookahead/internal/presentation/timeline"
	"github.com/aretw0/lookahead/internal/validator"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/olekukonko/tablewriter"
)

// Position is where a command looks from.
type Position struct {
	Segment  string
	Offset   float64
	Backward bool
	// Speed in km/h colors speed limits. Zero disables coloring.
	Speed float64
}

// RunUpcoming prints what lies ahead of pos.
func RunUpcoming(ctx context.Context, env *Environment, p *Printer, pos Position) error {
	seq, err := env.Engine.Upcoming(ctx, env.Query(pos.Segment, pos.Offset, pos.Backward))
	if err != nil {
		return err
	}
	events := slices.Collect(seq)
	rows := timeline.Format(events, timeline.Options{
		CurrentSpeed: pos.Speed,
		Describe:     env.Engine.DescribeJunction,
	})
	return p.Events(events, rows)
}

// RunFollow prints every raw event over distance. A negative distance travels backwards.
func RunFollow(ctx context.Context, env *Environment, p *Printer, pos Position, distance float64) error {
	if pos.Backward {
		distance = -distance
	}
	seq, err := env.Engine.Follow(ctx, domain.SegmentID(pos.Segment), pos.Offset, distance)
	if err != nil {
		return err
	}
	events := slices.Collect(seq)
	return p.Events(events, timeline.Format(events, timeline.Options{Describe: env.Engine.DescribeJunction}))
}

// RunAnnotations prints the cached annotations of one segment, from its first end.
func RunAnnotations(ctx context.Context, env *Environment, p *Printer, segment string) error {
	events, err := env.Engine.Annotations(ctx, domain.SegmentID(segment))
	if err != nil {
		return err
	}
	return p.Events(events, timeline.Format(events, timeline.Options{}))
}

// RunDescribe prints the named branches of a junction, or of every junction when id is empty.
func RunDescribe(env *Environment, p *Printer, id string) error {
	var descriptions []domain.JunctionDescription
	if id != "" {
		d, err := env.Engine.DescribeJunctionByID(id)
		if err != nil {
			return err
		}
		descriptions = append(descriptions, d)
	} else {
		for _, j := range env.Network.Junctions() {
			descriptions = append(descriptions, env.Engine.DescribeJunction(j))
		}
	}

	text := describeTable(descriptions)
	if p.format == FormatMarkdown {
		text = describeMarkdown(descriptions)
	}
	return p.Value(descriptions, text)
}

func describeTable(descriptions []domain.JunctionDescription) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"Junction", "Left", "", "Right"})
	table.SetBorder(false)
	for _, d := range descriptions {
		table.Append([]string{d.Junction, branchName(d.Left, d.LeftKnown), d.Arrow(), branchName(d.Right, d.RightKnown)})
	}
	table.Render()
	return sb.String()
}

func branchName(id domain.SegmentID, known bool) string {
	if !known {
		return "?"
	}
	return string(id)
}

func describeMarkdown(descriptions []domain.JunctionDescription) string {
	md := "| Junction | Left | | Right |\n|:---|:---|:---:|:---|\n"
	for _, d := range descriptions {
		md += fmt.Sprintf("| %s | %s | %s | %s |\n", d.Junction, branchName(d.Left, d.LeftKnown), d.Arrow(), branchName(d.Right, d.RightKnown))
	}
	return md
}

// RunGraph writes a Mermaid flowchart of the network. With a segment, the route ahead of it
// over span is highlighted.
func RunGraph(ctx context.Context, env *Environment, w io.Writer, segment string, span float64) error {
	overlay := &graph.GraphOverlay{State: env.Network}
	if segment != "" {
		seq, err := env.Engine.Follow(ctx, domain.SegmentID(segment), 0, span)
		if err != nil {
			return err
		}
		overlay.CurrentSegment = domain.SegmentID(segment)
		for ev := range seq {
			if se, ok := ev.(domain.SegmentEntered); ok && !slices.Contains(overlay.VisitedSegments, se.Segment) {
				overlay.VisitedSegments = append(overlay.VisitedSegments, se.Segment)
			}
		}
	}
	_, err := io.WriteString(w, graph.GenerateMermaid(env.Network, env.Network.IsGeneric, overlay))
	return err
}

// RunValidate checks the network for unreachable segments and malformed junctions.
func RunValidate(env *Environment, start string) error {
	return validator.ValidateNetwork(env.Network, domain.SegmentID(start))
}

// RunWatch prints the upcoming events of pos, then prints them again after every reload of the
// network file, until ctx is done.
func RunWatch(ctx context.Context, env *Environment, p *Printer, pos Position) error {
	if err := RunUpcoming(ctx, env, p, pos); err != nil {
		return err
	}
	err := env.WatchNetwork(ctx, func(ctx context.Context) {
		if p.format != FormatJSON {
			printSystemMessage(p.w, "Change detected in '%s'.", env.Options.NetworkPath)
		}
		if err := RunUpcoming(ctx, env, p, pos); err != nil {
			env.Logger.Error("upcoming failed after reload", "error", err)
		}
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
