package ports

import "github.com/aretw0/lookahead/pkg/domain"

// SpatialQuery finds sign labels along a ray.
// Results may change when geometry changes, which is why annotation caches are invalidated.
type SpatialQuery interface {
	// FindLabels returns every label hit between origin and origin+direction*maxDistance.
	// direction is a unit vector.
	FindLabels(origin, direction domain.Vec3, maxDistance float64) []domain.LabelHit
}

// SpatialQueryFunc adapts a function to SpatialQuery.
type SpatialQueryFunc func(origin, direction domain.Vec3, maxDistance float64) []domain.LabelHit

func (f SpatialQueryFunc) FindLabels(origin, direction domain.Vec3, maxDistance float64) []domain.LabelHit {
	return f(origin, direction, maxDistance)
}
