package domain

import "fmt"

// Record is the flat, serializable form of an Event.
// It is shared by the annotation stores and the transport adapters.
type Record struct {
	Kind       Kind      `json:"kind"`
	Span       float64   `json:"span"`
	Direction  bool      `json:"direction"`
	Value      *float64  `json:"value,omitempty"`
	Left       *float64  `json:"left,omitempty"`
	Right      *float64  `json:"right,omitempty"`
	SegmentID  SegmentID `json:"segment_id,omitempty"`
	JunctionID string    `json:"junction_id,omitempty"`
	// Selected is filled by callers that have access to live junction state.
	Selected *int `json:"selected,omitempty"`
}

// ToRecord flattens an event.
func ToRecord(ev Event) Record {
	var rec Record
	ev.Accept(VisitorFuncs{
		SegmentEntered: func(e SegmentEntered) {
			rec = Record{Kind: e.Kind(), Span: e.Span, Direction: e.Direction, SegmentID: e.Segment}
		},
		JunctionReached: func(e JunctionReached) {
			rec = Record{Kind: e.Kind(), Span: e.Span, Direction: e.Direction}
			if e.Junction != nil {
				rec.JunctionID = e.Junction.ID
			}
		},
		SpeedLimit: func(e SpeedLimit) {
			rec = Record{Kind: e.Kind(), Span: e.Span, Direction: e.Direction, Value: ptr(e.Value)}
		},
		DualSpeedLimit: func(e DualSpeedLimit) {
			rec = Record{Kind: e.Kind(), Span: e.Span, Direction: e.Direction, Left: ptr(e.Left), Right: ptr(e.Right)}
		},
		Grade: func(e Grade) {
			rec = Record{Kind: e.Kind(), Span: e.Span, Direction: e.Direction, Value: ptr(e.Value)}
		},
	})
	return rec
}

// FromRecord rebuilds an event.
// JunctionReached records need the live network and return ErrNotStorable.
func FromRecord(rec Record) (Event, error) {
	switch rec.Kind {
	case KindSegmentEntered:
		return NewSegmentEntered(rec.Span, rec.SegmentID), nil
	case KindSpeedLimit:
		if rec.Value == nil {
			return nil, fmt.Errorf("speed limit record without value")
		}
		return NewSpeedLimit(rec.Span, rec.Direction, *rec.Value), nil
	case KindDualSpeedLimit:
		if rec.Left == nil || rec.Right == nil {
			return nil, fmt.Errorf("dual speed limit record without values")
		}
		return NewDualSpeedLimit(rec.Span, rec.Direction, *rec.Left, *rec.Right), nil
	case KindGrade:
		if rec.Value == nil {
			return nil, fmt.Errorf("grade record without value")
		}
		return NewGrade(rec.Span, rec.Direction, *rec.Value), nil
	case KindJunctionReached:
		return nil, fmt.Errorf("%s: %w", rec.Kind, ErrNotStorable)
	default:
		return nil, fmt.Errorf("unknown event kind %q", rec.Kind)
	}
}

// ToRecords flattens a list of events.
func ToRecords(events []Event) []Record {
	out := make([]Record, len(events))
	for i, ev := range events {
		out[i] = ToRecord(ev)
	}
	return out
}

// FromRecords rebuilds a list of events, failing on the first bad record.
func FromRecords(records []Record) ([]Event, error) {
	out := make([]Event, 0, len(records))
	for i, rec := range records {
		ev, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func ptr[T any](v T) *T {
	return &v
}
