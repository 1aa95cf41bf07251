package hash

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumKnownDigest(t *testing.T) {
	digest, err := Sum(bytes.NewReader([]byte("hello world")))
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", digest)
}

func TestSumDeterministic(t *testing.T) {
	content := []byte("the same bytes every time")

	first, err := Sum(bytes.NewReader(content))
	require.NoError(t, err)
	second, err := Sum(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestSumEmptyInput(t *testing.T) {
	digest, err := Sum(bytes.NewReader(nil))
	require.NoError(t, err)
	// SHA-256 of the empty string.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", digest)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestSumPropagatesReadErrors(t *testing.T) {
	_, err := Sum(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestSumFileMatchesSum(t *testing.T) {
	content := []byte("file contents do not care about their name")
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	fromFile, err := SumFile(path)
	require.NoError(t, err)
	fromBuffer, err := Sum(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, fromBuffer, fromFile)
}

func TestSumFileMissing(t *testing.T) {
	_, err := SumFile(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}
