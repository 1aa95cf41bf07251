package asset

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Delete removes the asset row (metadata cascades) and its filesystem
// artifacts. Deleting an id that is already gone reports not found; it does
// not corrupt anything, so repeating a delete is safe.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")

	asset, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if err := h.repo.DeleteByID(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}

	if _, err := h.blobs.Delete(asset.FilePath); err != nil {
		h.logger.Error("failed to delete original blob", "asset_id", id, "error", err)
	}
	if asset.ThumbnailPath != nil {
		if _, err := h.blobs.Delete(*asset.ThumbnailPath); err != nil {
			h.logger.Error("failed to delete thumbnail blob", "asset_id", id, "error", err)
		}
	}

	h.events.AssetDeleted(id)

	c.JSON(http.StatusOK, gin.H{
		"message":  "asset deleted",
		"asset_id": id,
	})
}
