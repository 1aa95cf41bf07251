package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Sum computes the lowercase hex SHA-256 digest of everything readable from
// r, streaming so arbitrarily large inputs never need full buffering.
// Identical bytes always produce the identical digest. I/O errors from r are
// propagated; a partial digest is never returned.
func Sum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile computes the content digest of the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()
	return Sum(f)
}
