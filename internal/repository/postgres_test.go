package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/MediaVault-Hub/Asset-Service/internal/models"
)

func TestIsUniqueViolation(t *testing.T) {
	hashConflict := &pq.Error{Code: "23505", Constraint: "assets_content_hash_key"}

	assert.True(t, isUniqueViolation(hashConflict, "content_hash"))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert failed: %w", hashConflict), "content_hash"),
		"wrapped errors are unwrapped")

	assert.False(t, isUniqueViolation(hashConflict, "email"), "other constraints don't match")
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503", Constraint: "assets_content_hash_key"}, "content_hash"),
		"foreign-key violations are not unique violations")
	assert.False(t, isUniqueViolation(errors.New("connection reset"), "content_hash"))
	assert.False(t, isUniqueViolation(nil, "content_hash"))
}

func TestNormalizeImageMetadata(t *testing.T) {
	empty := ""
	blank := "   "
	maker := "Canon"

	m := &models.ImageMetadata{
		CameraMake:   &maker,
		CameraModel:  &empty,
		ExposureTime: &blank,
	}
	normalizeImageMetadata(m)

	assert.Equal(t, "Canon", *m.CameraMake)
	assert.Nil(t, m.CameraModel, "empty strings become NULL")
	assert.Nil(t, m.ExposureTime, "whitespace-only strings become NULL")
	assert.Nil(t, m.LensModel, "missing fields stay nil")
}

func TestNormalizeVideoMetadata(t *testing.T) {
	empty := ""
	codec := "hevc"

	m := &models.VideoMetadata{
		VideoCodec: &codec,
		AudioCodec: &empty,
		HDRFormat:  &empty,
	}
	normalizeVideoMetadata(m)

	assert.Equal(t, "hevc", *m.VideoCodec)
	assert.Nil(t, m.AudioCodec)
	assert.Nil(t, m.HDRFormat)
}
