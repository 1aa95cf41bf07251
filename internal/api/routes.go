package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MediaVault-Hub/Asset-Service/internal/api/handlers/asset"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func RegisterRoutes(r *gin.Engine, h *asset.Handler) {
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/assets", h.Upload)                      // upload one or more files
		api.GET("/assets", h.List)                         // list assets, newest first
		api.GET("/assets/:id", h.Get)                      // asset record + metadata
		api.GET("/assets/:id/download", h.Download)        // original bytes
		api.GET("/assets/:id/thumbnail", h.Thumbnail)      // derived thumbnail
		api.DELETE("/assets/:id", h.Delete)                // remove asset and artifacts
	}
}
