package asset

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Download streams the original blob with its submitted filename.
func (h *Handler) Download(c *gin.Context) {
	asset, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	abs := h.blobs.Abs(asset.FilePath)
	if _, err := os.Stat(abs); err != nil {
		h.logger.Error("asset blob missing on disk", "asset_id", asset.ID, "path", asset.FilePath)
		c.JSON(http.StatusNotFound, gin.H{"error": "asset content not available"})
		return
	}

	c.Header("Content-Type", asset.MimeType)
	c.FileAttachment(abs, asset.OriginalName)
}

// Thumbnail serves the derived thumbnail, when one was produced.
func (h *Handler) Thumbnail(c *gin.Context) {
	asset, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	if asset.ThumbnailPath == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no thumbnail for this asset"})
		return
	}

	abs := h.blobs.Abs(*asset.ThumbnailPath)
	if _, err := os.Stat(abs); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "thumbnail not available"})
		return
	}

	c.Header("Content-Type", "image/jpeg")
	c.File(abs)
}
