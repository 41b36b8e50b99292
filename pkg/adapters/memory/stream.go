package memory

import (
	"context"
	"sync"
)

// Stream is a ports.GeometryStream driven by explicit Notify calls.
type Stream struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewStream creates a stream without subscribers.
func NewStream() *Stream {
	return &Stream{subs: make(map[chan struct{}]struct{})}
}

// Watch subscribes to geometry loads until ctx is done.
func (s *Stream) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// Notify signals every subscriber. Signals coalesce when a subscriber lags behind.
func (s *Stream) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
