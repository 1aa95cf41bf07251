package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	originalDir  = "original"
	thumbnailDir = "thumbnails"
)

// Store places accepted bytes under a single local root, partitioned by
// calendar date. It is the only component that writes or deletes bytes
// under that root. Paths returned by Place* are relative to the root so the
// tree can be relocated without rewriting rows.
type Store struct {
	root string
	now  func() time.Time
}

// New creates a store rooted at root. Directories are created lazily on
// first placement.
func New(root string) *Store {
	return &Store{root: root, now: time.Now}
}

// Root returns the configured asset root.
func (s *Store) Root() string {
	return s.root
}

// Abs resolves a stored relative path to an absolute filesystem path.
func (s *Store) Abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// PlaceOriginal streams content into the date-partitioned original tree
// under a freshly generated unique name. The extension comes from the
// detected MIME type, never from the client-supplied filename. An existing
// file at the computed path is never overwritten; uuid generation makes a
// collision a hard error rather than silent corruption.
func (s *Store) PlaceOriginal(content io.Reader, ext string) (string, error) {
	name := uuid.New().String() + ext
	return s.place(originalDir, name, content)
}

// PlaceThumbnail stores a derived thumbnail, named by the owning asset's
// identifier, in a parallel date-partitioned tree.
func (s *Store) PlaceThumbnail(assetID string, content io.Reader) (string, error) {
	return s.place(thumbnailDir, assetID+".jpg", content)
}

func (s *Store) place(tree, name string, content io.Reader) (string, error) {
	partition := s.now().UTC().Format("2006/01/02")
	dir := filepath.Join(s.root, tree, filepath.FromSlash(partition))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	full := filepath.Join(dir, name)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to finalize blob: %w", err)
	}

	rel := filepath.ToSlash(filepath.Join(tree, filepath.FromSlash(partition), name))
	return rel, nil
}

// Delete removes a previously placed blob. Deleting a path that does not
// exist is not an error; the returned bool reports whether anything was
// actually removed.
func (s *Store) Delete(relPath string) (bool, error) {
	if relPath == "" {
		return false, nil
	}
	err := os.Remove(s.Abs(relPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete blob: %w", err)
	}
	return true, nil
}
