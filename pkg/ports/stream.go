package ports

import "context"

// GeometryStream defines a source that notifies when new map geometry has been loaded.
type GeometryStream interface {
	// Watch returns a channel that is signaled after each geometry load.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
