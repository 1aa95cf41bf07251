package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TagBag is a string-to-string map stored as JSONB. It holds decoded tags
// that have no dedicated column: vendor-specific fields and the raw
// fallback for anything unrecognized.
type TagBag map[string]string

func (b TagBag) Value() (driver.Value, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return json.Marshal(b)
}

func (b *TagBag) Scan(src interface{}) error {
	if src == nil {
		*b = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("tag bag: cannot scan %T", src)
	}
	return json.Unmarshal(data, b)
}

// ImageMetadata holds capture-time information decoded from an image's
// embedded EXIF block. Every field is optional: nil means the source
// metadata did not carry it, not that extraction failed.
type ImageMetadata struct {
	AssetID         string     `db:"asset_id" json:"asset_id"`
	CameraMake      *string    `db:"camera_make" json:"camera_make,omitempty"`
	CameraModel     *string    `db:"camera_model" json:"camera_model,omitempty"`
	CameraSerial    *string    `db:"camera_serial" json:"camera_serial,omitempty"`
	LensModel       *string    `db:"lens_model" json:"lens_model,omitempty"`
	Software        *string    `db:"software" json:"software,omitempty"`
	TakenAt         *time.Time `db:"taken_at" json:"taken_at,omitempty"`
	ExposureTime    *string    `db:"exposure_time" json:"exposure_time,omitempty"`
	FNumber         *float64   `db:"f_number" json:"f_number,omitempty"`
	ISO             *int       `db:"iso" json:"iso,omitempty"`
	FocalLength     *float64   `db:"focal_length" json:"focal_length,omitempty"`
	MeteringMode    *string    `db:"metering_mode" json:"metering_mode,omitempty"`
	ExposureProgram *string    `db:"exposure_program" json:"exposure_program,omitempty"`
	WhiteBalance    *string    `db:"white_balance" json:"white_balance,omitempty"`
	Flash           *string    `db:"flash" json:"flash,omitempty"`
	Orientation     *string    `db:"orientation" json:"orientation,omitempty"`
	GPSLatitude     *float64   `db:"gps_latitude" json:"gps_latitude,omitempty"`
	GPSLongitude    *float64   `db:"gps_longitude" json:"gps_longitude,omitempty"`
	GPSAltitude     *float64   `db:"gps_altitude" json:"gps_altitude,omitempty"`
	ColorSpace      *string    `db:"color_space" json:"color_space,omitempty"`
	ExifVersion     *string    `db:"exif_version" json:"exif_version,omitempty"`
	VendorTags      TagBag     `db:"vendor_tags" json:"vendor_tags,omitempty"`
	RawTags         TagBag     `db:"raw_tags" json:"raw_tags,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// VideoMetadata holds stream-level facts probed from a video container.
// RawProbe keeps the full serialized probe output for fields not modeled
// individually.
type VideoMetadata struct {
	AssetID         string          `db:"asset_id" json:"asset_id"`
	DurationSeconds *float64        `db:"duration_seconds" json:"duration_seconds,omitempty"`
	VideoCodec      *string         `db:"video_codec" json:"video_codec,omitempty"`
	AudioCodec      *string         `db:"audio_codec" json:"audio_codec,omitempty"`
	VideoBitrate    *int64          `db:"video_bitrate" json:"video_bitrate,omitempty"`
	AudioBitrate    *int64          `db:"audio_bitrate" json:"audio_bitrate,omitempty"`
	TotalBitrate    *int64          `db:"total_bitrate" json:"total_bitrate,omitempty"`
	FrameRate       *float64        `db:"frame_rate" json:"frame_rate,omitempty"`
	PixelFormat     *string         `db:"pixel_format" json:"pixel_format,omitempty"`
	ColorPrimaries  *string         `db:"color_primaries" json:"color_primaries,omitempty"`
	ColorTransfer   *string         `db:"color_transfer" json:"color_transfer,omitempty"`
	ColorRange      *string         `db:"color_range" json:"color_range,omitempty"`
	IsHDR           bool            `db:"is_hdr" json:"is_hdr"`
	HDRFormat       *string         `db:"hdr_format" json:"hdr_format,omitempty"`
	BitDepth        *int            `db:"bit_depth" json:"bit_depth,omitempty"`
	VideoStreams    int             `db:"video_streams" json:"video_streams"`
	AudioStreams    int             `db:"audio_streams" json:"audio_streams"`
	SubtitleStreams int             `db:"subtitle_streams" json:"subtitle_streams"`
	RawProbe        types.JSONText `db:"raw_probe" json:"raw_probe,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}
