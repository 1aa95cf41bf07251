package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MediaVault-Hub/Asset-Service/internal/models"
	"github.com/MediaVault-Hub/Asset-Service/internal/pipeline"
)

type stubIngestor struct {
	results map[string]*pipeline.Result
	errs    map[string]error
	names   []string
}

func (s *stubIngestor) Ingest(_ context.Context, content io.Reader, originalName string) (*pipeline.Result, error) {
	io.Copy(io.Discard, content)
	s.names = append(s.names, originalName)
	if err, ok := s.errs[originalName]; ok {
		return nil, err
	}
	if res, ok := s.results[originalName]; ok {
		return res, nil
	}
	return &pipeline.Result{Asset: &models.Asset{ID: "generated", OriginalName: originalName}}, nil
}

func newTestRouter(ing Ingestor, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(ing, nil, nil, nil, nil, logger, maxUpload)
	r := gin.New()
	r.POST("/api/assets", h.Upload)
	return r
}

func multipartBody(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

type uploadResponse struct {
	Results []UploadResult `json:"results"`
}

func TestUploadSingleFile(t *testing.T) {
	ing := &stubIngestor{}
	r := newTestRouter(ing, 1<<20)

	body, contentType := multipartBody(t, "file", map[string][]byte{"cat.png": []byte("png bytes")})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"cat.png"}, ing.names)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Success)
}

func TestUploadDuplicateReturnsOK(t *testing.T) {
	ing := &stubIngestor{results: map[string]*pipeline.Result{
		"again.png": {Asset: &models.Asset{ID: "existing"}, Duplicate: true},
	}}
	r := newTestRouter(ing, 1<<20)

	body, contentType := multipartBody(t, "file", map[string][]byte{"again.png": []byte("x")})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Nothing was created, so 200 rather than 201.
	assert.Equal(t, http.StatusOK, w.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	require.NotNil(t, resp.Results[0].Result)
	assert.True(t, resp.Results[0].Result.Duplicate)

	// The duplicate flag appears once, on the nested result.
	var generic struct {
		Results []map[string]json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generic))
	require.Len(t, generic.Results, 1)
	assert.NotContains(t, generic.Results[0], "duplicate")
}

func TestUploadValidationFailure(t *testing.T) {
	ing := &stubIngestor{errs: map[string]error{
		"notes.txt": &pipeline.ValidationError{Reason: "unsupported media type"},
	}}
	r := newTestRouter(ing, 1<<20)

	body, contentType := multipartBody(t, "file", map[string][]byte{"notes.txt": []byte("text")})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported media type")
}

func TestUploadInternalFailureIsOpaque(t *testing.T) {
	ing := &stubIngestor{errs: map[string]error{
		"boom.png": errors.New("pq: connection reset by peer"),
	}}
	r := newTestRouter(ing, 1<<20)

	body, contentType := multipartBody(t, "file", map[string][]byte{"boom.png": []byte("x")})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
	assert.NotContains(t, w.Body.String(), "connection reset", "backend details never leak")
}

func TestUploadMultipleMixedOutcome(t *testing.T) {
	ing := &stubIngestor{errs: map[string]error{
		"bad.txt": &pipeline.ValidationError{Reason: "unsupported media type"},
	}}
	r := newTestRouter(ing, 1<<20)

	body, contentType := multipartBody(t, "files", map[string][]byte{
		"good.png": []byte("png"),
		"bad.txt":  []byte("text"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// One file made it in, so the batch reports created.
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)

	succeeded, failed := 0, 0
	for _, res := range resp.Results {
		if res.Success {
			succeeded++
		} else {
			failed++
			assert.Contains(t, res.Error, "unsupported media type")
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	ing := &stubIngestor{}
	r := newTestRouter(ing, 4)

	body, contentType := multipartBody(t, "file", map[string][]byte{"big.png": []byte("way past the limit")})
	req := httptest.NewRequest(http.MethodPost, "/api/assets", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file too large")
	assert.Empty(t, ing.names, "nothing reaches the pipeline")
}

func TestUploadRequiresFiles(t *testing.T) {
	r := newTestRouter(&stubIngestor{}, 1<<20)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/assets", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
