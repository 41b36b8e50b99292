package domain

import "fmt"

// Kind names an event variant. It is also the discriminator of Record.
type Kind string

const (
	KindSegmentEntered  Kind = "segment_entered"
	KindJunctionReached Kind = "junction_reached"
	KindSpeedLimit      Kind = "speed_limit"
	KindDualSpeedLimit  Kind = "dual_speed_limit"
	KindGrade           Kind = "grade"
)

// Position is carried by every event.
// Span is the distance from the traversal start (or from the segment start, for cached annotations).
// Direction is true when the event applies along the direction of travel.
type Position struct {
	Span      float64 `json:"span"`
	Direction bool    `json:"direction"`
}

// Pos returns the position of the event.
func (p Position) Pos() Position { return p }

// Event is a closed sum type: only the variants declared in this package implement it.
// Use Accept with a Visitor to match every variant.
type Event interface {
	Pos() Position
	Kind() Kind
	Accept(v Visitor)
	fmt.Stringer

	withPosition(p Position) Event
}

// SegmentEntered marks a segment boundary.
type SegmentEntered struct {
	Position
	Segment SegmentID
}

// JunctionReached marks a junction approached from its "in" side.
// The selected branch is not captured; read it live through ports.JunctionState.
type JunctionReached struct {
	Position
	Junction *Junction
}

// SpeedLimit is a posted limit, already in display units.
type SpeedLimit struct {
	Position
	Value float64
}

// DualSpeedLimit is a sign whose meaning depends on the next junction ahead.
// Left applies when branch 0 is selected, Right when branch 1 is.
type DualSpeedLimit struct {
	Position
	Left  float64
	Right float64
}

// Grade is a slope in percent. Positive is uphill in the direction the event applies to.
type Grade struct {
	Position
	Value float64
}

// NewSegmentEntered builds a SegmentEntered event. Boundaries always apply to the traveller.
func NewSegmentEntered(span float64, id SegmentID) SegmentEntered {
	return SegmentEntered{Position: Position{Span: span, Direction: true}, Segment: id}
}

// NewJunctionReached builds a JunctionReached event.
func NewJunctionReached(span float64, direction bool, j *Junction) JunctionReached {
	return JunctionReached{Position: Position{Span: span, Direction: direction}, Junction: j}
}

// NewSpeedLimit builds a SpeedLimit event.
func NewSpeedLimit(span float64, direction bool, value float64) SpeedLimit {
	return SpeedLimit{Position: Position{Span: span, Direction: direction}, Value: value}
}

// NewDualSpeedLimit builds a DualSpeedLimit event.
func NewDualSpeedLimit(span float64, direction bool, left, right float64) DualSpeedLimit {
	return DualSpeedLimit{Position: Position{Span: span, Direction: direction}, Left: left, Right: right}
}

// NewGrade builds a Grade event.
func NewGrade(span float64, direction bool, value float64) Grade {
	return Grade{Position: Position{Span: span, Direction: direction}, Value: value}
}

func (SegmentEntered) Kind() Kind  { return KindSegmentEntered }
func (JunctionReached) Kind() Kind { return KindJunctionReached }
func (SpeedLimit) Kind() Kind      { return KindSpeedLimit }
func (DualSpeedLimit) Kind() Kind  { return KindDualSpeedLimit }
func (Grade) Kind() Kind           { return KindGrade }

func (e SegmentEntered) Accept(v Visitor)  { v.VisitSegmentEntered(e) }
func (e JunctionReached) Accept(v Visitor) { v.VisitJunctionReached(e) }
func (e SpeedLimit) Accept(v Visitor)      { v.VisitSpeedLimit(e) }
func (e DualSpeedLimit) Accept(v Visitor)  { v.VisitDualSpeedLimit(e) }
func (e Grade) Accept(v Visitor)           { v.VisitGrade(e) }

// Boundaries ignore direction changes.
func (e SegmentEntered) withPosition(p Position) Event {
	e.Span = p.Span
	return e
}

func (e JunctionReached) withPosition(p Position) Event {
	e.Position = p
	return e
}

func (e SpeedLimit) withPosition(p Position) Event {
	e.Position = p
	return e
}

func (e DualSpeedLimit) withPosition(p Position) Event {
	e.Position = p
	return e
}

func (e Grade) withPosition(p Position) Event {
	e.Position = p
	return e
}

func (e SegmentEntered) String() string {
	return fmt.Sprintf("%.1f: New segment %s", e.Span, e.Segment)
}

func (e JunctionReached) String() string {
	id := "<nil>"
	if e.Junction != nil {
		id = e.Junction.ID
	}
	return fmt.Sprintf("%.1f %t: Junction %s", e.Span, e.Direction, id)
}

func (e SpeedLimit) String() string {
	return fmt.Sprintf("%.1f %t: Speed limit %g", e.Span, e.Direction, e.Value)
}

func (e DualSpeedLimit) String() string {
	return fmt.Sprintf("%.1f %t: Junction speed limit %g, %g", e.Span, e.Direction, e.Left, e.Right)
}

func (e Grade) String() string {
	return fmt.Sprintf("%.1f %t: Grade %g%%", e.Span, e.Direction, e.Value)
}

// WithSpan returns a copy of ev at a new span.
func WithSpan(ev Event, span float64) Event {
	p := ev.Pos()
	p.Span = span
	return ev.withPosition(p)
}

// Offset returns a copy of ev moved by delta.
func Offset(ev Event, delta float64) Event {
	return WithSpan(ev, ev.Pos().Span+delta)
}

// Reoriented returns a copy of ev as seen by a traveller moving in travelDirection,
// where the stored direction was recorded along the segment's own orientation.
// Values are never changed.
func Reoriented(ev Event, travelDirection bool) Event {
	p := ev.Pos()
	p.Direction = p.Direction == travelDirection
	return ev.withPosition(p)
}
