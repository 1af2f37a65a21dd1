// Package handler translates the HTTP surface into service calls and maps
// the error taxonomy onto status codes. Responses use the JSON envelopes
// {status:"success",data} and {status:"error",error}.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mannyyang/docubeam/internal/apperr"
	"github.com/mannyyang/docubeam/internal/models"
	"github.com/mannyyang/docubeam/internal/services"
	"github.com/mannyyang/docubeam/internal/validate"
)

// DocumentService is the orchestrator dependency.
type DocumentService interface {
	Upload(ctx context.Context, in services.UploadInput) (*models.UploadResult, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
	Retry(ctx context.Context, id string) (*models.OCRStatus, error)
	Status(ctx context.Context, id string) (*models.OCRStatus, error)
	Search(ctx context.Context, id, query string) (*models.SearchResults, error)
}

// RetrievalService is the read-side dependency.
type RetrievalService interface {
	OCRResult(ctx context.Context, id string) (*models.ProcessedOCRResult, error)
	ExtractedText(ctx context.Context, id string) (string, error)
	PageContent(ctx context.Context, id string, pageNumber int) (*models.PageContent, error)
	Images(ctx context.Context, id string) ([]models.DocumentImage, error)
	Summary(ctx context.Context, id string) (*models.DocumentSummary, error)
}

// FileReader fetches stored bytes for the raw file endpoint.
type FileReader interface {
	GetFile(ctx context.Context, path string) ([]byte, error)
}

// DocumentHandler serves the /documents routes.
type DocumentHandler struct {
	docs  DocumentService
	reads RetrievalService
	files FileReader
	log   *slog.Logger
}

// NewDocumentHandler builds the handler.
func NewDocumentHandler(docs DocumentService, reads RetrievalService, files FileReader, log *slog.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, reads: reads, files: files, log: log}
}

// Upload handles POST /documents/upload.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	// Read at most one byte past the cap so oversized uploads fail validation
	// instead of exhausting memory.
	data, err := io.ReadAll(io.LimitReader(file, validate.MaxFileSize+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	result, err := h.docs.Upload(c.Request.Context(), services.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	})
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// List handles GET /documents.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"documents": docs, "total": len(docs)})
}

// Get handles GET /documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.docs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, doc)
}

// Delete handles DELETE /documents/:id.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.docs.Delete(c.Request.Context(), id); err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// OCRResult handles GET /documents/:id/ocr.
func (h *DocumentHandler) OCRResult(c *gin.Context) {
	result, err := h.reads.OCRResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// Text handles GET /documents/:id/text, serving raw markdown.
func (h *DocumentHandler) Text(c *gin.Context) {
	text, err := h.reads.ExtractedText(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(text))
}

// Page handles GET /documents/:id/pages/:pageNumber.
func (h *DocumentHandler) Page(c *gin.Context) {
	pageNumber, err := strconv.Atoi(c.Param("pageNumber"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "page number must be an integer")
		return
	}
	page, err := h.reads.PageContent(c.Request.Context(), c.Param("id"), pageNumber)
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// Status handles GET /documents/:id/ocr/status.
func (h *DocumentHandler) Status(c *gin.Context) {
	status, err := h.docs.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, status)
}

// Retry handles POST /documents/:id/ocr/retry.
func (h *DocumentHandler) Retry(c *gin.Context) {
	status, err := h.docs.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, status)
}

// Images handles GET /documents/:id/images.
func (h *DocumentHandler) Images(c *gin.Context) {
	images, err := h.reads.Images(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"images": images, "total": len(images)})
}

// Summary handles GET /documents/:id/summary.
func (h *DocumentHandler) Summary(c *gin.Context) {
	summary, err := h.reads.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}

// Search handles GET /documents/:id/search?q=...
func (h *DocumentHandler) Search(c *gin.Context) {
	results, err := h.docs.Search(c.Request.Context(), c.Param("id"), c.Query("q"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, results)
}

// File handles GET /documents/:id/file, serving the original bytes.
func (h *DocumentHandler) File(c *gin.Context) {
	doc, err := h.docs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	data, err := h.files.GetFile(c.Request.Context(), doc.Path)
	if err != nil {
		h.respondFailure(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", data)
}

// respondFailure maps the error taxonomy onto status codes: validation → 400,
// not found → 404, provider → 502, everything else → 500 with the message
// surfaced (no sensitive internals are embedded in these messages).
func (h *DocumentHandler) respondFailure(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		respondError(c, http.StatusBadRequest, err.Error())
	case apperr.IsNotFound(err):
		respondError(c, http.StatusNotFound, err.Error())
	case apperr.IsProvider(err):
		respondError(c, http.StatusBadGateway, err.Error())
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, err.Error())
	}
}

func respondSuccess(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"status": "success", "data": data})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "error": message})
}
