// Package index discovers and caches the intrinsic annotations of each segment:
// posted speed limits (single or dual), grade signs and sampled grades.
//
// A segment's centerline is resampled into equidistant points; from each point a ray is cast
// along the track to the next point and every sign label it hits is parsed into events.
// The result is ordered by span, stored direction-neutral and reused until InvalidateAll.
package index
