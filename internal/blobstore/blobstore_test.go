package blobstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(s *Store) {
	s.now = func() time.Time {
		return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	}
}

func TestPlaceOriginalPartitionsByDate(t *testing.T) {
	s := New(t.TempDir())
	fixedClock(s)

	rel, err := s.PlaceOriginal(strings.NewReader("jpeg bytes"), ".jpg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "original/2026/03/14/"), "got %s", rel)
	assert.True(t, strings.HasSuffix(rel, ".jpg"))

	content, err := os.ReadFile(s.Abs(rel))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))
}

func TestPlaceOriginalUniqueNames(t *testing.T) {
	s := New(t.TempDir())
	fixedClock(s)

	first, err := s.PlaceOriginal(strings.NewReader("a"), ".png")
	require.NoError(t, err)
	second, err := s.PlaceOriginal(strings.NewReader("b"), ".png")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPlaceThumbnailNamedByAsset(t *testing.T) {
	s := New(t.TempDir())
	fixedClock(s)

	rel, err := s.PlaceThumbnail("some-asset-id", strings.NewReader("thumb"))
	require.NoError(t, err)

	assert.Equal(t, "thumbnails/2026/03/14/some-asset-id.jpg", rel)
}

func TestPlaceNeverOverwrites(t *testing.T) {
	s := New(t.TempDir())
	fixedClock(s)

	_, err := s.PlaceThumbnail("dup-id", strings.NewReader("first"))
	require.NoError(t, err)

	// Same asset id on the same day computes the same path; the store must
	// refuse rather than corrupt the already-persisted bytes.
	_, err = s.PlaceThumbnail("dup-id", strings.NewReader("second"))
	assert.Error(t, err)

	content, err := os.ReadFile(s.Abs("thumbnails/2026/03/14/dup-id.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))
}

func TestDeleteIdempotent(t *testing.T) {
	s := New(t.TempDir())
	fixedClock(s)

	rel, err := s.PlaceOriginal(strings.NewReader("bytes"), ".gif")
	require.NoError(t, err)

	removed, err := s.Delete(rel)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(rel)
	require.NoError(t, err)
	assert.False(t, removed, "second delete is a no-op, not an error")
}

func TestDeleteEmptyPath(t *testing.T) {
	s := New(t.TempDir())

	removed, err := s.Delete("")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLazyDirectoryCreation(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	fixedClock(s)

	// Nothing exists until the first placement.
	_, err := os.Stat(filepath.Join(root, "original"))
	assert.True(t, os.IsNotExist(err))

	_, err = s.PlaceOriginal(strings.NewReader("x"), ".png")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "original", "2026", "03", "14"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
