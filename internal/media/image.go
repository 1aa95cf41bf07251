package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/disintegration/imaging"
)

// ImageProcessor derives browsing artifacts from a stored image: pixel
// dimensions, a bounded-box JPEG thumbnail and EXIF capture metadata. Each
// stage fails independently; a failure only means the corresponding derived
// data is unavailable.
type ImageProcessor struct {
	thumbSize    int
	thumbQuality int
}

// NewImageProcessor configures derivation with the target thumbnail bound
// (longest side, pixels) and JPEG quality (1-100).
func NewImageProcessor(thumbSize, thumbQuality int) *ImageProcessor {
	return &ImageProcessor{thumbSize: thumbSize, thumbQuality: thumbQuality}
}

// Dimensions reads the image header and returns its pixel width and height
// without decoding the full frame.
func (p *ImageProcessor) Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Thumbnail decodes the image, fits it inside the configured bounding box
// preserving aspect ratio, and re-encodes it as a quality-lossy JPEG.
// Images already within the bound are re-encoded without resizing.
func (p *ImageProcessor) Thumbnail(path string) (*bytes.Buffer, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > p.thumbSize || b.Dy() > p.thumbSize {
		img = imaging.Fit(img, p.thumbSize, p.thumbSize, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: p.thumbQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf, nil
}
