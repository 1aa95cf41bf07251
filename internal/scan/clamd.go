package scan

import (
	"context"
	"log/slog"
	"time"

	clamd "github.com/dutchcoders/go-clamd"

	"github.com/MediaVault-Hub/Asset-Service/internal/blobstore"
	"github.com/MediaVault-Hub/Asset-Service/internal/events"
	"github.com/MediaVault-Hub/Asset-Service/internal/models"
)

const scanTimeout = 2 * time.Minute

// StatusStore is the persistence surface the scanner needs: recording
// verdicts and removing infected rows.
type StatusStore interface {
	UpdateScanStatus(ctx context.Context, id string, status models.ScanStatus) error
	DeleteByID(ctx context.Context, id string) error
}

// Scanner checks stored originals against a ClamAV daemon after ingestion.
// Infected assets are removed entirely: row, original and thumbnail.
type Scanner struct {
	address string
	repo    StatusStore
	blobs   *blobstore.Store
	events  *events.Publisher
	logger  *slog.Logger
	timeout time.Duration
}

// New builds a scanner talking to the clamd instance at address. The
// daemon must share the filesystem holding the asset root.
func New(address string, repo StatusStore, blobs *blobstore.Store, pub *events.Publisher, logger *slog.Logger) *Scanner {
	return &Scanner{
		address: address,
		repo:    repo,
		blobs:   blobs,
		events:  pub,
		logger:  logger,
		timeout: scanTimeout,
	}
}

type verdict struct {
	infected    bool
	description string
	err         error
}

// ScanAsset scans one stored asset and records the verdict. Scan failures
// and timeouts are non-fatal: the asset stays, marked as skipped.
func (s *Scanner) ScanAsset(asset *models.Asset) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// clamd's client has no context support; the daemon exchange runs in
	// its own goroutine so a hung daemon cannot pin this one past the
	// deadline.
	verdicts := make(chan verdict, 1)
	go func() { verdicts <- s.runScan(asset) }()

	select {
	case <-ctx.Done():
		s.logger.Warn("virus scan timed out", "asset_id", asset.ID, "timeout", s.timeout)
		s.setStatus(asset.ID, models.ScanSkipped)
	case v := <-verdicts:
		switch {
		case v.err != nil:
			s.logger.Warn("virus scan failed", "asset_id", asset.ID, "error", v.err)
			s.setStatus(asset.ID, models.ScanSkipped)
		case v.infected:
			s.logger.Warn("virus detected in asset", "asset_id", asset.ID, "signature", v.description)
			s.quarantine(ctx, asset, v.description)
		default:
			s.setStatus(asset.ID, models.ScanClean)
		}
	}
}

func (s *Scanner) runScan(asset *models.Asset) verdict {
	c := clamd.NewClamd(s.address)
	response, err := c.ScanFile(s.blobs.Abs(asset.FilePath))
	if err != nil {
		return verdict{err: err}
	}
	for res := range response {
		if res.Status == clamd.RES_FOUND {
			return verdict{infected: true, description: res.Description}
		}
	}
	return verdict{}
}

// quarantine removes an infected asset completely and announces it.
func (s *Scanner) quarantine(ctx context.Context, asset *models.Asset, description string) {
	if err := s.repo.DeleteByID(ctx, asset.ID); err != nil {
		s.logger.Error("failed to delete infected asset row", "asset_id", asset.ID, "error", err)
		s.setStatus(asset.ID, models.ScanInfected)
		return
	}
	if _, err := s.blobs.Delete(asset.FilePath); err != nil {
		s.logger.Error("failed to delete infected blob", "asset_id", asset.ID, "error", err)
	}
	if asset.ThumbnailPath != nil {
		if _, err := s.blobs.Delete(*asset.ThumbnailPath); err != nil {
			s.logger.Error("failed to delete infected thumbnail", "asset_id", asset.ID, "error", err)
		}
	}
	s.events.AssetInfected(asset.ID, description)
}

// setStatus records a verdict on its own short deadline, so a verdict still
// lands after the scan context itself has expired.
func (s *Scanner) setStatus(assetID string, status models.ScanStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.repo.UpdateScanStatus(ctx, assetID, status); err != nil {
		s.logger.Error("failed to update scan status", "asset_id", assetID, "error", err)
	}
}
