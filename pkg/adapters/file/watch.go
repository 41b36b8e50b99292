package file

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/lookahead/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Watcher is a ports.GeometryStream that signals whenever a network file is written.
// It watches the parent directory so editors that save by renaming are noticed too.
type Watcher struct {
	Path   string
	Logger *slog.Logger
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(path string) *Watcher {
	return &Watcher{Path: path, Logger: logging.NewNop()}
}

// Watch starts watching until ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	abs, err := filepath.Abs(w.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				w.Logger.Debug("network file changed", "path", abs, "op", ev.Op.String())
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.Logger.Warn("watcher error", "error", err)
			}
		}
	}()
	return out, nil
}
