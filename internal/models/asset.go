package models

import (
	"time"
)

// Kind is the coarse media category of an asset, derived from the sniffed
// MIME type rather than the client-supplied filename.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// ScanStatus tracks the antivirus state of a stored asset.
type ScanStatus string

const (
	ScanPending  ScanStatus = "pending"
	ScanClean    ScanStatus = "clean"
	ScanInfected ScanStatus = "infected"
	ScanSkipped  ScanStatus = "skipped"
)

// Asset is one physically stored media file. ContentHash is unique across
// all assets; byte-identical uploads resolve to the same row.
type Asset struct {
	ID            string     `db:"id" json:"id"`
	OriginalName  string     `db:"original_name" json:"original_name"`
	StorageName   string     `db:"storage_name" json:"storage_name"`
	FilePath      string     `db:"file_path" json:"file_path"`
	ThumbnailPath *string    `db:"thumbnail_path" json:"thumbnail_path,omitempty"`
	MimeType      string     `db:"mime_type" json:"mime_type"`
	Kind          Kind       `db:"kind" json:"kind"`
	Size          int64      `db:"size" json:"size"`
	Width         *int       `db:"width" json:"width,omitempty"`
	Height        *int       `db:"height" json:"height,omitempty"`
	ContentHash   string     `db:"content_hash" json:"content_hash"`
	ScanStatus    ScanStatus `db:"scan_status" json:"scan_status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
