package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MediaVault-Hub/Asset-Service/internal/models"
)

var (
	// ErrNotFound is returned when no asset matches the given id or hash.
	ErrNotFound = errors.New("asset not found")
	// ErrDuplicateHash is returned when an insert collides with an existing
	// row on the content-hash uniqueness constraint. This is the race-safety
	// backstop for deduplication.
	ErrDuplicateHash = errors.New("asset with identical content already exists")
)

const uniqueViolation = "23505"

// Repository is the persistence boundary for assets and their metadata.
// It exclusively owns the on-disk schema.
type Repository struct {
	db *sqlx.DB
}

// Connect opens a PostgreSQL connection pool and verifies it.
func Connect(connectionString string) (*Repository, error) {
	db, err := sqlx.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Repository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

const insertAsset = `
INSERT INTO assets (id, original_name, storage_name, file_path, thumbnail_path,
                    mime_type, kind, size, width, height, content_hash, scan_status, created_at)
VALUES (:id, :original_name, :storage_name, :file_path, :thumbnail_path,
        :mime_type, :kind, :size, :width, :height, :content_hash, :scan_status, :created_at)`

// CreateAsset inserts a new asset row. A concurrent insert of the same
// content hash fails with ErrDuplicateHash, distinctly from other database
// failures.
func (r *Repository) CreateAsset(ctx context.Context, asset *models.Asset) error {
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	if asset.ScanStatus == "" {
		asset.ScanStatus = models.ScanPending
	}

	_, err := r.db.NamedExecContext(ctx, insertAsset, asset)
	if err != nil {
		if isUniqueViolation(err, "content_hash") {
			return ErrDuplicateHash
		}
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return nil
}

const selectAsset = `
SELECT id, original_name, storage_name, file_path, thumbnail_path, mime_type,
       kind, size, width, height, content_hash, scan_status, created_at
FROM assets`

// GetByID returns the asset with the given id, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.GetContext(ctx, &asset, selectAsset+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}
	return &asset, nil
}

// GetByHash returns the asset owning the given content hash, or ErrNotFound.
// This is the deduplication lookup.
func (r *Repository) GetByHash(ctx context.Context, contentHash string) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.GetContext(ctx, &asset, selectAsset+` WHERE content_hash = $1`, contentHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query asset by hash: %w", err)
	}
	return &asset, nil
}

// List returns assets newest-first, optionally filtered by kind.
func (r *Repository) List(ctx context.Context, limit, offset int, kind models.Kind) ([]models.Asset, error) {
	query := selectAsset
	args := []interface{}{limit, offset}
	if kind != "" {
		query += ` WHERE kind = $3`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	assets := []models.Asset{}
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// DeleteByID removes the asset row; metadata rows cascade at the schema
// level. Deleting an id that no longer exists returns ErrNotFound so a
// second delete is a recognizable no-op.
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateScanStatus records the antivirus verdict for an asset.
func (r *Repository) UpdateScanStatus(ctx context.Context, id string, status models.ScanStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE assets SET scan_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update scan status: %w", err)
	}
	return nil
}

const insertImageMetadata = `
INSERT INTO image_metadata (asset_id, camera_make, camera_model, camera_serial, lens_model,
                            software, taken_at, exposure_time, f_number, iso, focal_length,
                            metering_mode, exposure_program, white_balance, flash, orientation,
                            gps_latitude, gps_longitude, gps_altitude, color_space, exif_version,
                            vendor_tags, raw_tags, created_at)
VALUES (:asset_id, :camera_make, :camera_model, :camera_serial, :lens_model,
        :software, :taken_at, :exposure_time, :f_number, :iso, :focal_length,
        :metering_mode, :exposure_program, :white_balance, :flash, :orientation,
        :gps_latitude, :gps_longitude, :gps_altitude, :color_space, :exif_version,
        :vendor_tags, :raw_tags, :created_at)`

// CreateImageMetadata inserts the capture-metadata record for an image
// asset. Empty string fields are normalized to NULL before insertion.
func (r *Repository) CreateImageMetadata(ctx context.Context, meta *models.ImageMetadata) error {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	normalizeImageMetadata(meta)

	if _, err := r.db.NamedExecContext(ctx, insertImageMetadata, meta); err != nil {
		return fmt.Errorf("failed to insert image metadata: %w", err)
	}
	return nil
}

const insertVideoMetadata = `
INSERT INTO video_metadata (asset_id, duration_seconds, video_codec, audio_codec,
                            video_bitrate, audio_bitrate, total_bitrate, frame_rate,
                            pixel_format, color_primaries, color_transfer, color_range,
                            is_hdr, hdr_format, bit_depth, video_streams, audio_streams,
                            subtitle_streams, raw_probe, created_at)
VALUES (:asset_id, :duration_seconds, :video_codec, :audio_codec,
        :video_bitrate, :audio_bitrate, :total_bitrate, :frame_rate,
        :pixel_format, :color_primaries, :color_transfer, :color_range,
        :is_hdr, :hdr_format, :bit_depth, :video_streams, :audio_streams,
        :subtitle_streams, :raw_probe, :created_at)`

// CreateVideoMetadata inserts the stream-metadata record for a video asset.
func (r *Repository) CreateVideoMetadata(ctx context.Context, meta *models.VideoMetadata) error {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	normalizeVideoMetadata(meta)

	if _, err := r.db.NamedExecContext(ctx, insertVideoMetadata, meta); err != nil {
		return fmt.Errorf("failed to insert video metadata: %w", err)
	}
	return nil
}

// GetImageMetadata returns the image metadata for an asset, or ErrNotFound
// when extraction never produced a record.
func (r *Repository) GetImageMetadata(ctx context.Context, assetID string) (*models.ImageMetadata, error) {
	var meta models.ImageMetadata
	err := r.db.GetContext(ctx, &meta, `SELECT * FROM image_metadata WHERE asset_id = $1`, assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query image metadata: %w", err)
	}
	return &meta, nil
}

// GetVideoMetadata returns the video metadata for an asset, or ErrNotFound.
func (r *Repository) GetVideoMetadata(ctx context.Context, assetID string) (*models.VideoMetadata, error) {
	var meta models.VideoMetadata
	err := r.db.GetContext(ctx, &meta, `SELECT * FROM video_metadata WHERE asset_id = $1`, assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query video metadata: %w", err)
	}
	return &meta, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation on
// a constraint whose name contains the given column.
func isUniqueViolation(err error, column string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && strings.Contains(pqErr.Constraint, column)
}

// normalizeImageMetadata nils out empty-string fields so they persist as
// "not present" rather than empty values.
func normalizeImageMetadata(m *models.ImageMetadata) {
	for _, field := range []**string{
		&m.CameraMake, &m.CameraModel, &m.CameraSerial, &m.LensModel, &m.Software,
		&m.ExposureTime, &m.MeteringMode, &m.ExposureProgram, &m.WhiteBalance,
		&m.Flash, &m.Orientation, &m.ColorSpace, &m.ExifVersion,
	} {
		nilIfEmpty(field)
	}
}

func normalizeVideoMetadata(m *models.VideoMetadata) {
	for _, field := range []**string{
		&m.VideoCodec, &m.AudioCodec, &m.PixelFormat, &m.ColorPrimaries,
		&m.ColorTransfer, &m.ColorRange, &m.HDRFormat,
	} {
		nilIfEmpty(field)
	}
}

func nilIfEmpty(field **string) {
	if *field != nil && strings.TrimSpace(**field) == "" {
		*field = nil
	}
}
