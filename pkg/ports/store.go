package ports

import (
	"context"

	"github.com/aretw0/lookahead/pkg/domain"
)

// AnnotationStore caches the ordered, direction-neutral annotations of each segment.
// Entries are never updated in place; Clear drops everything at once.
type AnnotationStore interface {
	// Get returns the cached annotations. The bool is false on a miss.
	Get(ctx context.Context, id domain.SegmentID) ([]domain.Event, bool, error)

	// Put stores the annotations of one segment.
	Put(ctx context.Context, id domain.SegmentID, events []domain.Event) error

	// Clear drops every entry.
	Clear(ctx context.Context) error
}
