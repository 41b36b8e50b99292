package index

import (
	"iter"
	"math"

	"github.com/aretw0/lookahead/pkg/domain"
)

// SamplePoint is one point of a resampled centerline.
type SamplePoint struct {
	Span       float64
	Position   domain.Vec3
	Forward    domain.Vec3
	SpanToNext float64
}

// PolylineLength returns the arc length of pts.
func PolylineLength(pts []domain.Vec3) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += pts[i].Sub(pts[i-1]).Len()
	}
	return total
}

// Resample walks pts and yields equidistant points no further apart than resolution.
// The spacing is capped at a third of the length so short polylines still get several samples.
// The sequence is lazy and can be ranged over more than once.
func Resample(pts []domain.Vec3, resolution float64) iter.Seq[SamplePoint] {
	return func(yield func(SamplePoint) bool) {
		total := PolylineLength(pts)
		if len(pts) < 2 || total <= 0 {
			return
		}

		step := resolution
		if third := total / 3; step <= 0 || third < step {
			step = third
		}
		n := int(math.Ceil(total/step - 1e-9))
		if n < 1 {
			n = 1
		}
		step = total / float64(n)

		piece := 0
		pieceStart := 0.0
		for i := 0; i <= n; i++ {
			s := float64(i) * step
			if i == n {
				s = total
			}
			for piece < len(pts)-2 && pieceStart+pts[piece+1].Sub(pts[piece]).Len() < s {
				pieceStart += pts[piece+1].Sub(pts[piece]).Len()
				piece++
			}

			a, b := pts[piece], pts[piece+1]
			l := b.Sub(a).Len()
			t := 0.0
			if l > 0 {
				t = math.Min(math.Max((s-pieceStart)/l, 0), 1)
			}

			p := SamplePoint{
				Span:     s,
				Position: a.Lerp(b, t),
				Forward:  forwardAt(pts, piece),
			}
			if i < n {
				p.SpanToNext = step
			}
			if !yield(p) {
				return
			}
		}
	}
}

// forwardAt returns the direction of the first non-degenerate piece at or after i.
func forwardAt(pts []domain.Vec3, i int) domain.Vec3 {
	for j := i; j < len(pts)-1; j++ {
		if d := pts[j+1].Sub(pts[j]); d.Len() > 0 {
			return d.Normalize()
		}
	}
	for j := i; j > 0; j-- {
		if d := pts[j].Sub(pts[j-1]); d.Len() > 0 {
			return d.Normalize()
		}
	}
	return domain.Vec3{}
}

// GradeOf converts the vertical component of a unit forward vector to a percentage,
// rounded to the nearest half unit.
func GradeOf(forward domain.Vec3) float64 {
	g := math.Round(forward.Y*200) / 2
	if g == 0 {
		return 0
	}
	return g
}
