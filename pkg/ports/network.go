package ports

import "github.com/aretw0/lookahead/pkg/domain"

// Network is the read-only view of the rail graph.
type Network interface {
	// Segment looks up a segment by ID.
	Segment(id domain.SegmentID) (*domain.Segment, bool)

	// Junction looks up a junction by ID.
	Junction(id string) (*domain.Junction, bool)

	// InBranch returns where a traveller ends up when leaving seg through its first end,
	// taking the live junction selection into account. The bool is false at a dead end.
	// A branch without a segment is treated as a dead end too.
	InBranch(seg *domain.Segment) (domain.Branch, bool)

	// OutBranch is InBranch for the last end.
	OutBranch(seg *domain.Segment) (domain.Branch, bool)

	// InJunction returns the junction attached to the first end of seg, if any.
	InJunction(seg *domain.Segment) *domain.Junction

	// OutJunction returns the junction attached to the last end of seg, if any.
	OutJunction(seg *domain.Segment) *domain.Junction

	// NextBranches lists every branch reachable by entering through b and leaving through
	// the opposite end, regardless of junction selection.
	NextBranches(b domain.Branch) []domain.Branch

	// IsGeneric reports whether id is an auto-generated placeholder name.
	IsGeneric(id domain.SegmentID) bool
}

// JunctionState reads the live routing of junctions. The core never writes it.
type JunctionState interface {
	// SelectedBranch returns 0 or 1.
	SelectedBranch(j *domain.Junction) int
}

// Inspector exposes the whole graph for visualization tools.
type Inspector interface {
	Segments() []*domain.Segment
	Junctions() []*domain.Junction
	Links() []domain.Link
}
