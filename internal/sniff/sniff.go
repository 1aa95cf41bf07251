package sniff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/MediaVault-Hub/Asset-Service/internal/models"
)

// ErrUnsupportedType is returned when the sniffed MIME type is outside the
// accepted image/* and video/* categories.
var ErrUnsupportedType = errors.New("unsupported media type")

// Result is the outcome of magic-byte classification.
type Result struct {
	MIME      string
	Extension string // includes the leading dot, derived from the MIME type
	Kind      models.Kind
}

// Detect classifies a byte buffer by its magic bytes. The client-declared
// filename and content type are never consulted. Only image/* and video/*
// types are accepted; everything else, including the octet-stream fallback,
// yields ErrUnsupportedType wrapped with the detected type.
func Detect(data []byte) (Result, error) {
	return classify(mimetype.Detect(data))
}

// DetectFile classifies the file at path by reading its header.
func DetectFile(path string) (Result, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to sniff file type: %w", err)
	}
	return classify(mt)
}

func classify(mt *mimetype.MIME) (Result, error) {
	mime := mt.String()
	var kind models.Kind
	switch {
	case strings.HasPrefix(mime, "image/"):
		kind = models.KindImage
	case strings.HasPrefix(mime, "video/"):
		kind = models.KindVideo
	default:
		return Result{MIME: mime}, fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}

	return Result{
		MIME:      mime,
		Extension: mt.Extension(),
		Kind:      kind,
	}, nil
}
