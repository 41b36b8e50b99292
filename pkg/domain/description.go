package domain

import "fmt"

// JunctionDescription names both out branches of a junction and its selection at the time it was built.
type JunctionDescription struct {
	Junction   string    `json:"junction"`
	Left       SegmentID `json:"left,omitempty"`
	Right      SegmentID `json:"right,omitempty"`
	LeftKnown  bool      `json:"left_known"`
	RightKnown bool      `json:"right_known"`
	Selected   int       `json:"selected"`
}

// Arrow is "<<<" when the left branch is selected and ">>>" otherwise.
func (jd JunctionDescription) Arrow() string {
	if jd.Selected == 0 {
		return "<<<"
	}
	return ">>>"
}

// String renders "left <<< right" or, when a side has no name, the bare arrow.
func (jd JunctionDescription) String() string {
	if !jd.LeftKnown || !jd.RightKnown {
		return jd.Arrow()
	}
	return fmt.Sprintf("%s %s %s", jd.Left, jd.Arrow(), jd.Right)
}
