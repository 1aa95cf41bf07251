package asset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MediaVault-Hub/Asset-Service/internal/blobstore"
	"github.com/MediaVault-Hub/Asset-Service/internal/events"
	"github.com/MediaVault-Hub/Asset-Service/internal/pipeline"
	"github.com/MediaVault-Hub/Asset-Service/internal/repository"
	"github.com/MediaVault-Hub/Asset-Service/internal/scan"
)

// Ingestor runs the asset ingestion pipeline for one upload.
type Ingestor interface {
	Ingest(ctx context.Context, content io.Reader, originalName string) (*pipeline.Result, error)
}

// Handler exposes the asset API over gin. All collaborators are injected;
// Events and Scanner may be nil when their backends are not configured.
type Handler struct {
	pipeline      Ingestor
	repo          *repository.Repository
	blobs         *blobstore.Store
	events        *events.Publisher
	scanner       *scan.Scanner
	logger        *slog.Logger
	maxUploadSize int64
}

func NewHandler(p Ingestor, repo *repository.Repository, blobs *blobstore.Store, pub *events.Publisher, scanner *scan.Scanner, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		pipeline:      p,
		repo:          repo,
		blobs:         blobs,
		events:        pub,
		scanner:       scanner,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

// renderError maps the pipeline error taxonomy onto transport status codes.
// Validation reasons go to the client verbatim; everything else is reported
// generically with the diagnostic context kept in logs.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case pipeline.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
