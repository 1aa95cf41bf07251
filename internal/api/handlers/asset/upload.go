package asset

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MediaVault-Hub/Asset-Service/internal/pipeline"
)

// UploadResult is the per-file result object returned to the client.
type UploadResult struct {
	Success bool             `json:"success"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Upload accepts both single ("file") and multiple ("files") multipart
// uploads and runs each through the ingestion pipeline.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		// fallback: maybe a single file
		if f, ferr := c.FormFile("file"); ferr == nil && f != nil {
			form = &multipart.Form{
				File: map[string][]*multipart.FileHeader{
					"file": {f},
				},
			}
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form: " + err.Error()})
			return
		}
	}

	var files []*multipart.FileHeader
	if fs, found := form.File["files"]; found && len(fs) > 0 {
		files = fs
	}
	if len(files) == 0 {
		if f, found := form.File["file"]; found && len(f) > 0 {
			files = f
		}
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	for _, fh := range files {
		if fh.Size > h.maxUploadSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large: %s", fh.Filename)})
			return
		}
	}

	results := make([]UploadResult, 0, len(files))
	status := http.StatusOK

	for _, fh := range files {
		res, err := h.ingestOne(c, fh)
		if err != nil {
			if len(files) == 1 {
				h.renderError(c, err)
				return
			}
			if !pipeline.IsValidation(err) {
				h.logger.Error("upload failed", "filename", fh.Filename, "error", err)
			}
			results = append(results, UploadResult{Success: false, Error: publicReason(err)})
			continue
		}
		if !res.Duplicate {
			status = http.StatusCreated
		}
		results = append(results, UploadResult{Success: true, Result: res})
	}

	c.JSON(status, gin.H{"results": results})
}

func (h *Handler) ingestOne(c *gin.Context, fh *multipart.FileHeader) (*pipeline.Result, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	res, err := h.pipeline.Ingest(c.Request.Context(), f, fh.Filename)
	if err != nil {
		return nil, err
	}

	if !res.Duplicate && h.scanner != nil {
		go h.scanner.ScanAsset(res.Asset)
	}
	return res, nil
}

// publicReason keeps validation messages, hides everything else.
func publicReason(err error) string {
	if pipeline.IsValidation(err) {
		return err.Error()
	}
	return "internal error"
}
