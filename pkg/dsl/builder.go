package dsl

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/aretw0/lookahead/pkg/adapters/memory"
	"github.com/aretw0/lookahead/pkg/domain"
)

// End names one end of a segment.
type End bool

const (
	First End = true
	Last  End = false
)

// Facing tells which travellers can read a sign.
type Facing int

const (
	// Forward signs are read when travelling from the first end towards the last end.
	Forward Facing = iota
	// Backward signs are read when travelling from the last end towards the first end.
	Backward
)

const (
	laneSpacing = 100.0
	signOffset  = 2.0
)

// Builder manages the network construction.
type Builder struct {
	segments  []*SegmentBuilder
	byID      map[domain.SegmentID]*SegmentBuilder
	junctions []*JunctionBuilder
	links     []linkSpec
	generic   int
	errs      []error
}

// New creates a new network builder.
func New() *Builder {
	return &Builder{
		byID: make(map[domain.SegmentID]*SegmentBuilder),
	}
}

// Segment adds a segment. An empty id gets a placeholder name ("#1", "#2", ...).
// If the segment already exists, it returns the existing builder.
func (b *Builder) Segment(id string, length float64) *SegmentBuilder {
	if id == "" {
		b.generic++
		id = fmt.Sprintf("#%d", b.generic)
	}
	if sb, ok := b.byID[domain.SegmentID(id)]; ok {
		return sb
	}
	sb := &SegmentBuilder{
		id:      domain.SegmentID(id),
		length:  length,
		grades:  []gradeBreak{{from: 0, pct: 0}},
		builder: b,
		lane:    len(b.segments),
	}
	b.segments = append(b.segments, sb)
	b.byID[sb.id] = sb
	return sb
}

// Junction adds a junction.
func (b *Builder) Junction(id string) *JunctionBuilder {
	jb := &JunctionBuilder{id: id, builder: b}
	b.junctions = append(b.junctions, jb)
	return jb
}

// Link connects two segment ends without a junction.
func (b *Builder) Link(from string, fromEnd End, to string, toEnd End) *Builder {
	b.links = append(b.links, linkSpec{from: endSpec{domain.SegmentID(from), fromEnd}, to: endSpec{domain.SegmentID(to), toEnd}})
	return b
}

// Build compiles the description into an in-memory network.
func (b *Builder) Build() (*memory.Network, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	net := memory.NewNetwork()
	built := make(map[domain.SegmentID]*domain.Segment, len(b.segments))

	for _, sb := range b.segments {
		seg, signs, err := sb.build()
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", sb.id, err)
		}
		if err := net.AddSegment(seg); err != nil {
			return nil, err
		}
		for _, s := range signs {
			net.AddSign(s)
		}
		built[seg.ID] = seg
	}

	branch := func(e endSpec) (domain.Branch, error) {
		seg, ok := built[e.segment]
		if !ok {
			return domain.Branch{}, fmt.Errorf("%s: %w", e.segment, domain.ErrUnknownSegment)
		}
		return domain.Branch{Segment: seg, First: bool(e.end)}, nil
	}

	for _, jb := range b.junctions {
		if jb.in == nil || len(jb.out) != 2 {
			return nil, fmt.Errorf("junction %s needs one in branch and two out branches", jb.id)
		}
		j := &domain.Junction{ID: jb.id}
		var err error
		if j.In, err = branch(*jb.in); err != nil {
			return nil, fmt.Errorf("junction %s: %w", jb.id, err)
		}
		for i, out := range jb.out {
			if j.Out[i], err = branch(out); err != nil {
				return nil, fmt.Errorf("junction %s: %w", jb.id, err)
			}
		}
		if err := net.AddJunction(j); err != nil {
			return nil, err
		}
		if err := net.Select(j.ID, jb.selected); err != nil {
			return nil, err
		}
	}

	for _, l := range b.links {
		from, err := branch(l.from)
		if err != nil {
			return nil, fmt.Errorf("link: %w", err)
		}
		to, err := branch(l.to)
		if err != nil {
			return nil, fmt.Errorf("link: %w", err)
		}
		if err := net.Connect(from, to); err != nil {
			return nil, err
		}
	}

	return net, nil
}

type endSpec struct {
	segment domain.SegmentID
	end     End
}

type linkSpec struct {
	from, to endSpec
}

type gradeBreak struct {
	from float64
	pct  float64
}

type signSpec struct {
	span   float64
	label  string
	facing Facing
}

// SegmentBuilder describes one segment.
type SegmentBuilder struct {
	id       domain.SegmentID
	length   float64
	lane     int
	grades   []gradeBreak
	signs    []signSpec
	geometry []domain.Vec3
	bare     bool
	builder  *Builder
}

// ID returns the final name of the segment, including generated placeholder names.
func (sb *SegmentBuilder) ID() string {
	return string(sb.id)
}

// Grade sets a constant grade, in percent, over the whole segment.
func (sb *SegmentBuilder) Grade(pct float64) *SegmentBuilder {
	sb.grades = []gradeBreak{{from: 0, pct: pct}}
	return sb
}

// GradeFrom changes the grade from span onwards.
func (sb *SegmentBuilder) GradeFrom(span, pct float64) *SegmentBuilder {
	if span < 0 || span >= sb.length {
		sb.builder.errs = append(sb.builder.errs, fmt.Errorf("segment %s: grade break at %v outside [0, %v)", sb.id, span, sb.length))
		return sb
	}
	sb.grades = slices.DeleteFunc(sb.grades, func(g gradeBreak) bool { return g.from == span })
	sb.grades = append(sb.grades, gradeBreak{from: span, pct: pct})
	slices.SortFunc(sb.grades, func(a, b gradeBreak) int { return cmp.Compare(a.from, b.from) })
	return sb
}

// Sign places a label next to the track at span.
func (sb *SegmentBuilder) Sign(span float64, label string, facing Facing) *SegmentBuilder {
	if span < 0 || span >= sb.length {
		sb.builder.errs = append(sb.builder.errs, fmt.Errorf("segment %s: sign at %v outside [0, %v)", sb.id, span, sb.length))
		return sb
	}
	sb.signs = append(sb.signs, signSpec{span: span, label: label, facing: facing})
	return sb
}

// Geometry replaces the generated centerline.
func (sb *SegmentBuilder) Geometry(pts ...domain.Vec3) *SegmentBuilder {
	sb.geometry = pts
	return sb
}

// Bare removes the centerline, leaving a segment without annotations.
func (sb *SegmentBuilder) Bare() *SegmentBuilder {
	sb.bare = true
	return sb
}

func (sb *SegmentBuilder) build() (*domain.Segment, []memory.Sign, error) {
	if sb.length < 0 {
		return nil, nil, fmt.Errorf("negative length %v", sb.length)
	}
	seg := &domain.Segment{ID: sb.id, Length: sb.length}
	if sb.bare {
		return seg, nil, nil
	}

	pts := sb.geometry
	if pts == nil {
		pts = sb.centerline()
	}
	seg.Geometry = pts

	signs := make([]memory.Sign, 0, len(sb.signs))
	for _, s := range sb.signs {
		pos, tangent := pointAt(pts, s.span)
		facing := tangent.Scale(-1)
		if s.facing == Backward {
			facing = tangent
		}
		signs = append(signs, memory.Sign{
			Label:    s.label,
			Position: pos.Add(domain.Vec3{Z: signOffset}),
			Facing:   facing,
		})
	}
	return seg, signs, nil
}

// centerline lays the segment out along X, one lane per segment.
func (sb *SegmentBuilder) centerline() []domain.Vec3 {
	if sb.length == 0 {
		return nil
	}
	origin := domain.Vec3{Z: float64(sb.lane) * laneSpacing}
	pts := []domain.Vec3{origin}
	for i, g := range sb.grades {
		to := sb.length
		if i+1 < len(sb.grades) {
			to = sb.grades[i+1].from
		}
		rise := g.pct / 100
		dir := domain.Vec3{X: math.Sqrt(1 - rise*rise), Y: rise}
		last := pts[len(pts)-1]
		pts = append(pts, last.Add(dir.Scale(to-g.from)))
	}
	return pts
}

// pointAt walks the polyline to span and returns the point and unit tangent there.
func pointAt(pts []domain.Vec3, span float64) (domain.Vec3, domain.Vec3) {
	if len(pts) < 2 {
		return domain.Vec3{}, domain.Vec3{X: 1}
	}
	walked := 0.0
	for i := 1; i < len(pts); i++ {
		d := pts[i].Sub(pts[i-1])
		l := d.Len()
		if walked+l >= span || i == len(pts)-1 {
			t := 0.0
			if l > 0 {
				t = math.Min((span-walked)/l, 1)
			}
			return pts[i-1].Lerp(pts[i], t), d.Normalize()
		}
		walked += l
	}
	return pts[len(pts)-1], domain.Vec3{X: 1}
}

// JunctionBuilder describes one junction.
type JunctionBuilder struct {
	id       string
	in       *endSpec
	out      []endSpec
	selected int
	builder  *Builder
}

// In sets the segment end on the "in" side.
func (jb *JunctionBuilder) In(segment string, end End) *JunctionBuilder {
	jb.in = &endSpec{domain.SegmentID(segment), end}
	return jb
}

// Out adds an "out" branch. The first call is branch 0, the second branch 1.
func (jb *JunctionBuilder) Out(segment string, end End) *JunctionBuilder {
	if len(jb.out) == 2 {
		jb.builder.errs = append(jb.builder.errs, fmt.Errorf("junction %s: more than two out branches", jb.id))
		return jb
	}
	jb.out = append(jb.out, endSpec{domain.SegmentID(segment), end})
	return jb
}

// Select sets the initial selection.
func (jb *JunctionBuilder) Select(branch int) *JunctionBuilder {
	jb.selected = branch
	return jb
}
