package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/MediaVault-Hub/Asset-Service/internal/hash"
	"github.com/MediaVault-Hub/Asset-Service/internal/models"
	"github.com/MediaVault-Hub/Asset-Service/internal/repository"
	"github.com/MediaVault-Hub/Asset-Service/internal/sniff"
)

// Repository is the persistence surface the pipeline depends on.
type Repository interface {
	CreateAsset(ctx context.Context, asset *models.Asset) error
	GetByHash(ctx context.Context, contentHash string) (*models.Asset, error)
	DeleteByID(ctx context.Context, id string) error
	CreateImageMetadata(ctx context.Context, meta *models.ImageMetadata) error
	CreateVideoMetadata(ctx context.Context, meta *models.VideoMetadata) error
	GetImageMetadata(ctx context.Context, assetID string) (*models.ImageMetadata, error)
	GetVideoMetadata(ctx context.Context, assetID string) (*models.VideoMetadata, error)
}

// BlobStore places and removes bytes under the asset root.
type BlobStore interface {
	PlaceOriginal(content io.Reader, ext string) (string, error)
	PlaceThumbnail(assetID string, content io.Reader) (string, error)
	Delete(relPath string) (bool, error)
	Abs(relPath string) string
}

// ImageDeriver produces image browsing artifacts. Every method may fail
// independently; the pipeline treats failures as "derived data unavailable".
type ImageDeriver interface {
	Dimensions(path string) (int, int, error)
	Thumbnail(path string) (*bytes.Buffer, error)
	ExtractMetadata(path string) (*models.ImageMetadata, error)
}

// VideoDeriver probes video streams and extracts a representative frame.
type VideoDeriver interface {
	Probe(ctx context.Context, path string) (*models.VideoMetadata, int, int, error)
	Thumbnail(ctx context.Context, path string) (*bytes.Buffer, error)
}

// EventPublisher emits asset lifecycle events. May be nil when eventing is
// not configured.
type EventPublisher interface {
	AssetCreated(asset *models.Asset, duplicate bool)
}

// Result is the outcome of an ingestion: the created or pre-existing asset
// with whatever metadata exists for it.
type Result struct {
	Asset     *models.Asset         `json:"asset"`
	Image     *models.ImageMetadata `json:"image_metadata,omitempty"`
	Video     *models.VideoMetadata `json:"video_metadata,omitempty"`
	Duplicate bool                  `json:"duplicate"`
}

// Pipeline turns an uploaded byte stream into a durable, deduplicated,
// content-addressed asset with derived artifacts and structured metadata.
type Pipeline struct {
	repo   Repository
	blobs  BlobStore
	images ImageDeriver
	videos VideoDeriver
	events EventPublisher
	logger *slog.Logger
	derive chan struct{} // bounds concurrent media derivation
}

// New wires the pipeline from its collaborators. workers bounds how many
// uploads may run media derivation concurrently.
func New(repo Repository, blobs BlobStore, images ImageDeriver, videos VideoDeriver, events EventPublisher, logger *slog.Logger, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		repo:   repo,
		blobs:  blobs,
		images: images,
		videos: videos,
		events: events,
		logger: logger,
		derive: make(chan struct{}, workers),
	}
}

// Ingest runs the full pipeline for one upload: spool, hash, dedup lookup,
// type sniff, placement, derivation, persistence. Identical uploads are
// idempotent: the second call returns the first call's asset tagged as a
// duplicate without writing anything.
func (p *Pipeline) Ingest(ctx context.Context, content io.Reader, originalName string) (*Result, error) {
	spool, err := os.CreateTemp("", "asset-upload-*")
	if err != nil {
		return nil, &StorageError{Op: "spool", Err: err}
	}
	spoolPath := spool.Name()
	defer os.Remove(spoolPath) // the transient receipt never outlives the request

	digest, err := hash.Sum(io.TeeReader(content, spool))
	closeErr := spool.Close()
	if err != nil {
		return nil, &StorageError{Op: "spool", Err: err}
	}
	if closeErr != nil {
		return nil, &StorageError{Op: "spool", Err: closeErr}
	}

	// Deduplication short-circuit: identical content resolves to the
	// existing asset, no new storage or processing.
	if existing, err := p.repo.GetByHash(ctx, digest); err == nil {
		return p.duplicateResult(ctx, existing)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, &PersistenceError{Op: "dedup lookup", Err: err}
	}

	info, err := os.Stat(spoolPath)
	if err != nil {
		return nil, &StorageError{Op: "spool stat", Err: err}
	}
	if info.Size() == 0 {
		return nil, &ValidationError{Reason: "no file content provided"}
	}

	sniffed, err := sniff.DetectFile(spoolPath)
	if err != nil {
		if errors.Is(err, sniff.ErrUnsupportedType) {
			return nil, &ValidationError{Reason: fmt.Sprintf("unsupported media type %q: only image and video uploads are accepted", sniffed.MIME)}
		}
		return nil, &StorageError{Op: "type detection", Err: err}
	}

	src, err := os.Open(spoolPath)
	if err != nil {
		return nil, &StorageError{Op: "spool read", Err: err}
	}
	originalPath, err := p.blobs.PlaceOriginal(src, sniffed.Extension)
	src.Close()
	if err != nil {
		return nil, &StorageError{Op: "original placement", Err: err}
	}

	asset := &models.Asset{
		ID:           uuid.New().String(),
		OriginalName: originalName,
		StorageName:  path.Base(originalPath),
		FilePath:     originalPath,
		MimeType:     sniffed.MIME,
		Kind:         sniffed.Kind,
		Size:         info.Size(),
		ContentHash:  digest,
		ScanStatus:   models.ScanPending,
		CreatedAt:    time.Now().UTC(),
	}

	result := &Result{Asset: asset}
	p.runDerivation(ctx, asset, result)

	if err := p.repo.CreateAsset(ctx, asset); err != nil {
		p.cleanupBlobs(asset)
		if errors.Is(err, repository.ErrDuplicateHash) {
			// Lost the race against a concurrent identical upload; the
			// winner's row exists now.
			return p.resolveConflict(ctx, digest)
		}
		return nil, &PersistenceError{Op: "asset insert", Err: err}
	}

	if err := p.persistMetadata(ctx, result); err != nil {
		if delErr := p.repo.DeleteByID(ctx, asset.ID); delErr != nil {
			p.logger.Error("failed to roll back asset row after metadata failure",
				"asset_id", asset.ID, "error", delErr)
		}
		p.cleanupBlobs(asset)
		return nil, &PersistenceError{Op: "metadata insert", Err: err}
	}

	if p.events != nil {
		p.events.AssetCreated(asset, false)
	}
	return result, nil
}

// runDerivation executes kind-specific derivation under the worker bound.
// Every stage failure degrades the result and is logged, never propagated:
// losing a thumbnail must not prevent the asset from being stored.
func (p *Pipeline) runDerivation(ctx context.Context, asset *models.Asset, result *Result) {
	p.derive <- struct{}{}
	defer func() { <-p.derive }()

	abs := p.blobs.Abs(asset.FilePath)

	switch asset.Kind {
	case models.KindImage:
		if w, h, err := p.images.Dimensions(abs); err == nil {
			asset.Width, asset.Height = &w, &h
		} else {
			p.logger.Warn("image dimension probe failed", "asset_id", asset.ID, "error", err)
		}

		if thumb, err := p.images.Thumbnail(abs); err == nil {
			p.placeThumbnail(asset, thumb)
		} else {
			p.logger.Warn("image thumbnail generation failed", "asset_id", asset.ID, "error", err)
		}

		if meta, err := p.images.ExtractMetadata(abs); err == nil {
			if meta != nil {
				meta.AssetID = asset.ID
				result.Image = meta
			}
		} else {
			p.logger.Warn("image metadata extraction failed", "asset_id", asset.ID, "error", err)
		}

	case models.KindVideo:
		if meta, w, h, err := p.videos.Probe(ctx, abs); err == nil {
			if w > 0 && h > 0 {
				asset.Width, asset.Height = &w, &h
			}
			meta.AssetID = asset.ID
			result.Video = meta
		} else {
			p.logger.Warn("video probe failed", "asset_id", asset.ID, "error", err)
		}

		if thumb, err := p.videos.Thumbnail(ctx, abs); err == nil {
			p.placeThumbnail(asset, thumb)
		} else {
			p.logger.Warn("video thumbnail extraction failed", "asset_id", asset.ID, "error", err)
		}
	}
}

func (p *Pipeline) placeThumbnail(asset *models.Asset, thumb *bytes.Buffer) {
	thumbPath, err := p.blobs.PlaceThumbnail(asset.ID, thumb)
	if err != nil {
		p.logger.Warn("thumbnail placement failed", "asset_id", asset.ID, "error", err)
		return
	}
	asset.ThumbnailPath = &thumbPath
}

func (p *Pipeline) persistMetadata(ctx context.Context, result *Result) error {
	switch {
	case result.Image != nil:
		return p.repo.CreateImageMetadata(ctx, result.Image)
	case result.Video != nil:
		return p.repo.CreateVideoMetadata(ctx, result.Video)
	}
	return nil
}

// resolveConflict handles the duplicate-hash race: the re-lookup must now
// hit, and the caller gets the winner's asset on the duplicate path instead
// of an error.
func (p *Pipeline) resolveConflict(ctx context.Context, digest string) (*Result, error) {
	winner, err := p.repo.GetByHash(ctx, digest)
	if err != nil {
		return nil, &PersistenceError{Op: "conflict re-lookup", Err: err}
	}
	return p.duplicateResult(ctx, winner)
}

func (p *Pipeline) duplicateResult(ctx context.Context, asset *models.Asset) (*Result, error) {
	result := &Result{Asset: asset, Duplicate: true}
	switch asset.Kind {
	case models.KindImage:
		if meta, err := p.repo.GetImageMetadata(ctx, asset.ID); err == nil {
			result.Image = meta
		}
	case models.KindVideo:
		if meta, err := p.repo.GetVideoMetadata(ctx, asset.ID); err == nil {
			result.Video = meta
		}
	}
	if p.events != nil {
		p.events.AssetCreated(asset, true)
	}
	return result, nil
}

// cleanupBlobs removes any bytes placed for an asset that will not be
// recorded, to avoid orphaned files. Best effort.
func (p *Pipeline) cleanupBlobs(asset *models.Asset) {
	if _, err := p.blobs.Delete(asset.FilePath); err != nil {
		p.logger.Error("failed to clean up original blob", "path", asset.FilePath, "error", err)
	}
	if asset.ThumbnailPath != nil {
		if _, err := p.blobs.Delete(*asset.ThumbnailPath); err != nil {
			p.logger.Error("failed to clean up thumbnail blob", "path", *asset.ThumbnailPath, "error", err)
		}
	}
}
