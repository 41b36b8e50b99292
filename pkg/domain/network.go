package domain

import "fmt"

// SegmentID identifies a segment. It is stable across queries.
type SegmentID string

// Segment is a single piece of track.
// The first end sits at span 0 and the last end at span Length.
type Segment struct {
	ID     SegmentID `json:"id" yaml:"id"`
	Length float64   `json:"length" yaml:"length"`

	// Geometry is the centerline polyline, ordered from the first end to the last end.
	// Segments without geometry carry no spatial annotations.
	Geometry []Vec3 `json:"geometry,omitempty" yaml:"geometry,omitempty"`
}

// Branch describes how a junction (or a plain connection) attaches to a segment end.
type Branch struct {
	Segment *Segment
	First   bool
}

// Valid reports whether the branch points at a segment.
func (b Branch) Valid() bool {
	return b.Segment != nil
}

// EntryOffset is the offset a traversal starts at when it enters the segment through this branch.
func (b Branch) EntryOffset() float64 {
	if b.First || b.Segment == nil {
		return 0
	}
	return b.Segment.Length
}

// Key returns a comparable identity for memoization.
func (b Branch) Key() BranchKey {
	if b.Segment == nil {
		return BranchKey{First: b.First}
	}
	return BranchKey{Segment: b.Segment.ID, First: b.First}
}

func (b Branch) String() string {
	if b.Segment == nil {
		return "<nil>"
	}
	end := "last"
	if b.First {
		end = "first"
	}
	return fmt.Sprintf("%s@%s", b.Segment.ID, end)
}

// BranchKey is the comparable form of a Branch.
type BranchKey struct {
	Segment SegmentID
	First   bool
}

// Junction is a two-way branch point.
type Junction struct {
	ID  string    `json:"id"`
	In  Branch    `json:"-"`
	Out [2]Branch `json:"-"`
}

// Link is a plain segment-to-segment connection without a junction.
// It is only used for inspection and visualization.
type Link struct {
	From Branch
	To   Branch
}
