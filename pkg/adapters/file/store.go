package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lookahead/pkg/domain"
)

// Store implements ports.AnnotationStore on the local filesystem, one JSON file per segment,
// so annotations survive restarts of a tool that reads the same world.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".lookahead/annotations".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".lookahead", "annotations")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id domain.SegmentID) string {
	return filepath.Join(s.BasePath, url.PathEscape(string(id))+".json")
}

// Get reads the annotations of a segment.
func (s *Store) Get(ctx context.Context, id domain.SegmentID) ([]domain.Event, bool, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read annotation file: %w", err)
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal annotations: %w", err)
	}
	events, err := domain.FromRecords(records)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode annotations of %s: %w", id, err)
	}
	return events, true, nil
}

// Put writes the annotations of a segment atomically.
// It writes to a temporary file first, syncs it, and then renames it to the destination.
func (s *Store) Put(ctx context.Context, id domain.SegmentID, events []domain.Event) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure annotation directory: %w", err)
	}

	data, err := json.MarshalIndent(domain.ToRecords(events), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal annotations: %w", err)
	}

	// Same directory as the destination, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(id)
	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing annotation file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Clear removes every annotation file.
func (s *Store) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list annotations: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.BasePath, entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete annotation file: %w", err)
		}
	}
	return nil
}
