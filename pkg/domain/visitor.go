package domain

// Visitor matches every Event variant. Adding a variant adds a method here,
// which breaks every consumer at compile time until it handles the new case.
type Visitor interface {
	VisitSegmentEntered(SegmentEntered)
	VisitJunctionReached(JunctionReached)
	VisitSpeedLimit(SpeedLimit)
	VisitDualSpeedLimit(DualSpeedLimit)
	VisitGrade(Grade)
}

// VisitorFuncs adapts plain functions to a Visitor.
// Every field must be set: a nil field panics when its variant is visited.
type VisitorFuncs struct {
	SegmentEntered  func(SegmentEntered)
	JunctionReached func(JunctionReached)
	SpeedLimit      func(SpeedLimit)
	DualSpeedLimit  func(DualSpeedLimit)
	Grade           func(Grade)
}

func (f VisitorFuncs) VisitSegmentEntered(e SegmentEntered)   { f.SegmentEntered(e) }
func (f VisitorFuncs) VisitJunctionReached(e JunctionReached) { f.JunctionReached(e) }
func (f VisitorFuncs) VisitSpeedLimit(e SpeedLimit)           { f.SpeedLimit(e) }
func (f VisitorFuncs) VisitDualSpeedLimit(e DualSpeedLimit)   { f.DualSpeedLimit(e) }
func (f VisitorFuncs) VisitGrade(e Grade)                     { f.Grade(e) }
