package asset

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MediaVault-Hub/Asset-Service/internal/models"
	"github.com/MediaVault-Hub/Asset-Service/internal/repository"
)

// Get returns one asset with its nested metadata record, when present.
func (h *Handler) Get(c *gin.Context) {
	asset, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response := gin.H{"asset": asset}
	switch asset.Kind {
	case models.KindImage:
		meta, err := h.repo.GetImageMetadata(c.Request.Context(), asset.ID)
		if err == nil {
			response["image_metadata"] = meta
		} else if !errors.Is(err, repository.ErrNotFound) {
			h.renderError(c, err)
			return
		}
	case models.KindVideo:
		meta, err := h.repo.GetVideoMetadata(c.Request.Context(), asset.ID)
		if err == nil {
			response["video_metadata"] = meta
		} else if !errors.Is(err, repository.ErrNotFound) {
			h.renderError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// List returns assets newest-first with paging and an optional kind filter.
func (h *Handler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	var kind models.Kind
	switch c.Query("kind") {
	case "":
	case string(models.KindImage):
		kind = models.KindImage
	case string(models.KindVideo):
		kind = models.KindVideo
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be image or video"})
		return
	}

	assets, err := h.repo.List(c.Request.Context(), limit, offset, kind)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assets": assets,
		"limit":  limit,
		"offset": offset,
	})
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	s := c.Query(key)
	if s == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return v
}
