package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, width, height int, encode func(*os.File, image.Image) error, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, img))
	return path
}

func encodeJPEG(f *os.File, img image.Image) error {
	return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

func encodePNG(f *os.File, img image.Image) error {
	return png.Encode(f, img)
}

func TestDimensions(t *testing.T) {
	path := writeTestImage(t, 640, 480, encodeJPEG, "photo.jpg")

	p := NewImageProcessor(256, 80)
	w, h, err := p.Dimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestDimensionsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0x00, 0x01}, 0o644))

	p := NewImageProcessor(256, 80)
	_, _, err := p.Dimensions(path)
	assert.Error(t, err)
}

func TestThumbnailBoundsLargeImage(t *testing.T) {
	path := writeTestImage(t, 900, 600, encodeJPEG, "wide.jpg")

	p := NewImageProcessor(256, 80)
	buf, err := p.Thumbnail(path)
	require.NoError(t, err)

	thumb, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	b := thumb.Bounds()
	assert.LessOrEqual(t, b.Dx(), 256)
	assert.LessOrEqual(t, b.Dy(), 256)
	// Aspect ratio is preserved by the bounded-box fit.
	assert.Equal(t, 256, b.Dx())
	assert.InDelta(t, 256.0/1.5, float64(b.Dy()), 1)
}

func TestThumbnailSmallImageNotUpscaled(t *testing.T) {
	path := writeTestImage(t, 100, 80, encodePNG, "small.png")

	p := NewImageProcessor(256, 80)
	buf, err := p.Thumbnail(path)
	require.NoError(t, err)

	thumb, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 100, thumb.Bounds().Dx())
	assert.Equal(t, 80, thumb.Bounds().Dy())
}

func TestThumbnailCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.png")
	require.NoError(t, os.WriteFile(path, append([]byte("\x89PNG\r\n\x1a\n"), []byte("garbage")...), 0o644))

	p := NewImageProcessor(256, 80)
	_, err := p.Thumbnail(path)
	assert.Error(t, err)
}
