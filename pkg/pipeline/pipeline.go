package pipeline

import (
	"iter"
	"math"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
)

// Stage transforms an event sequence.
type Stage func(iter.Seq[domain.Event]) iter.Seq[domain.Event]

// Apply chains stages in order.
func Apply(seq iter.Seq[domain.Event], stages ...Stage) iter.Seq[domain.Event] {
	for _, stage := range stages {
		if stage != nil {
			seq = stage(seq)
		}
	}
	return seq
}

// Filter keeps the events for which keep returns true.
func Filter(keep func(domain.Event) bool) Stage {
	return func(seq iter.Seq[domain.Event]) iter.Seq[domain.Event] {
		return func(yield func(domain.Event) bool) {
			for ev := range seq {
				if keep(ev) && !yield(ev) {
					return
				}
			}
		}
	}
}

// DropUnnamedSegmentBoundaries removes SegmentEntered events whose segment has a placeholder name.
func DropUnnamedSegmentBoundaries(isGeneric func(domain.SegmentID) bool) Stage {
	return Filter(func(ev domain.Event) bool {
		se, ok := ev.(domain.SegmentEntered)
		return !ok || !isGeneric(se.Segment)
	})
}

// ForwardOnly removes events that apply against the direction of travel.
func ForwardOnly() Stage {
	return Filter(func(ev domain.Event) bool { return ev.Pos().Direction })
}

// DropRedundantSpeedLimits removes forward speed limits equal to the last forward limit emitted.
// Limits that apply in the other direction pass through untouched.
func DropRedundantSpeedLimits() Stage {
	return func(seq iter.Seq[domain.Event]) iter.Seq[domain.Event] {
		return func(yield func(domain.Event) bool) {
			last := math.NaN()
			for ev := range seq {
				if sl, ok := ev.(domain.SpeedLimit); ok && sl.Direction {
					if sl.Value == last {
						continue
					}
					last = sl.Value
				}
				if !yield(ev) {
					return
				}
			}
		}
	}
}

// DropRedundantGrades removes forward grades equal to the last forward grade emitted.
func DropRedundantGrades() Stage {
	return DropRedundantGradesFrom(math.NaN())
}

// DropRedundantGradesFrom is DropRedundantGrades seeded with the grade the traveller is already on.
func DropRedundantGradesFrom(current float64) Stage {
	return func(seq iter.Seq[domain.Event]) iter.Seq[domain.Event] {
		return func(yield func(domain.Event) bool) {
			last := current
			for ev := range seq {
				if g, ok := ev.(domain.Grade); ok && g.Direction {
					if g.Value == last {
						continue
					}
					last = g.Value
				}
				if !yield(ev) {
					return
				}
			}
		}
	}
}

// LimitCount keeps the first n events.
func LimitCount(n int) Stage {
	return func(seq iter.Seq[domain.Event]) iter.Seq[domain.Event] {
		return func(yield func(domain.Event) bool) {
			if n <= 0 {
				return
			}
			i := 0
			for ev := range seq {
				if !yield(ev) {
					return
				}
				i++
				if i >= n {
					return
				}
			}
		}
	}
}

// LimitSpan keeps events up to and including maxSpan, and stops reading at the first one beyond.
func LimitSpan(maxSpan float64) Stage {
	return func(seq iter.Seq[domain.Event]) iter.Seq[domain.Event] {
		return func(yield func(domain.Event) bool) {
			for ev := range seq {
				if ev.Pos().Span > maxSpan {
					return
				}
				if !yield(ev) {
					return
				}
			}
		}
	}
}

// ResolveDualSpeedLimits replaces forward dual limits by the limit of the branch selected at the
// next forward junction ahead. The junction is found by reading further into the sequence; events read
// in the meantime are held back and released in order. A dual limit with no junction after it
// passes through unchanged. Selection is read through state when the junction is reached.
func ResolveDualSpeedLimits(state ports.JunctionState) Stage {
	return func(seq iter.Seq[domain.Event]) iter.Seq[domain.Event] {
		return func(yield func(domain.Event) bool) {
			next, stop := iter.Pull(seq)
			defer stop()

			var pending []domain.Event
			flush := func(j *domain.Junction) bool {
				for _, ev := range pending {
					if dual, ok := ev.(domain.DualSpeedLimit); ok && dual.Direction && j != nil {
						value := dual.Left
						if state.SelectedBranch(j) == 1 {
							value = dual.Right
						}
						ev = domain.NewSpeedLimit(dual.Span, dual.Direction, value)
					}
					if !yield(ev) {
						return false
					}
				}
				pending = pending[:0]
				return true
			}

			for {
				ev, ok := next()
				if !ok {
					flush(nil)
					return
				}

				if jr, isJunction := ev.(domain.JunctionReached); isJunction && jr.Direction && len(pending) > 0 {
					if !flush(jr.Junction) {
						return
					}
				}

				if dual, isDual := ev.(domain.DualSpeedLimit); (isDual && dual.Direction) || len(pending) > 0 {
					pending = append(pending, ev)
					continue
				}
				if !yield(ev) {
					return
				}
			}
		}
	}
}
