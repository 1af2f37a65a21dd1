// Package services drives the document lifecycle: the upload pipeline, OCR
// retries, deletion, status, and search. It is the only package holding
// business-process logic; everything it touches is an injected dependency.
package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/mannyyang/docubeam/internal/apperr"
	"github.com/mannyyang/docubeam/internal/metadata"
	"github.com/mannyyang/docubeam/internal/models"
	"github.com/mannyyang/docubeam/internal/ocr"
	"github.com/mannyyang/docubeam/internal/retrieval"
	"github.com/mannyyang/docubeam/internal/storage"
	"github.com/mannyyang/docubeam/internal/validate"
)

// artifactConcurrency bounds parallel artifact writes after an OCR run.
const artifactConcurrency = 10

// OCRClient is the provider dependency.
type OCRClient interface {
	ExtractText(ctx context.Context, pdf []byte) (*models.OCRResponse, error)
}

// DocumentService orchestrates the pipeline end to end.
type DocumentService struct {
	gw         *storage.Gateway
	meta       *metadata.Store
	ocrClient  OCRClient
	retrieval  *retrieval.Service
	dispatcher Dispatcher
	baseURL    string
	log        *slog.Logger
}

// NewDocumentService wires the orchestrator.
func NewDocumentService(
	gw *storage.Gateway,
	meta *metadata.Store,
	ocrClient OCRClient,
	retrievalSvc *retrieval.Service,
	dispatcher Dispatcher,
	baseURL string,
	log *slog.Logger,
) *DocumentService {
	return &DocumentService{
		gw:         gw,
		meta:       meta,
		ocrClient:  ocrClient,
		retrieval:  retrievalSvc,
		dispatcher: dispatcher,
		baseURL:    baseURL,
		log:        log,
	}
}

// UploadInput carries a validated-to-be upload.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// Upload runs the ingestion pipeline: validate, persist the original, create
// the metadata record, then hand OCR to the dispatcher and return
// immediately. OCR failure never fails the upload; the status endpoint
// reports it.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*models.UploadResult, error) {
	if err := validate.File(&validate.FileInfo{Name: in.FileName, Size: in.Size, ContentType: in.ContentType}); err != nil {
		return nil, err
	}
	if err := validate.FileName(in.FileName); err != nil {
		return nil, err
	}
	if err := validate.Buffer(in.Data, validate.MinPDFSize); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logCtx := s.log.With("documentId", id, "fileName", in.FileName)

	hash := sha256.Sum256(in.Data)
	if pages, err := localPageCount(in.Data); err != nil {
		// Advisory only. The provider is authoritative for structure.
		logCtx.Warn("local pdf probe failed, deferring to ocr provider", "error", err)
	} else {
		logCtx.Info("local pdf probe", "pages", pages)
	}

	path, err := s.gw.StoreFile(ctx, id, in.FileName, in.Data, validate.PDFContentType, "original")
	if err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}

	doc := &models.Document{
		ID:         id,
		Name:       in.FileName,
		Size:       in.Size,
		PageCount:  0,
		Status:     models.StatusProcessing,
		UploadDate: time.Now().UTC(),
		Path:       path,
		FileHash:   hex.EncodeToString(hash[:]),
	}
	if err := s.meta.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create metadata: %w", err)
	}
	logCtx.Info("original stored, dispatching ocr", "size", in.Size)

	data := in.Data
	s.dispatcher.Dispatch(func(jobCtx context.Context) error {
		return s.runOCR(jobCtx, id, data)
	})

	return &models.UploadResult{
		ID:        id,
		Name:      in.FileName,
		Size:      in.Size,
		PageCount: 0,
		Status:    models.StatusProcessing,
		URLs:      retrieval.DocumentURLs(s.baseURL, id),
	}, nil
}

// runOCR is the enrichment stage: provider call, transform, artifact
// persistence, metadata completion. Any failure is captured on the document
// record and returned.
func (s *DocumentService) runOCR(ctx context.Context, id string, pdf []byte) error {
	logCtx := s.log.With("documentId", id)

	raw, err := s.ocrClient.ExtractText(ctx, pdf)
	if err != nil {
		return s.failOCR(ctx, logCtx, id, "ocr extraction failed", err)
	}

	processed := ocr.ProcessResult(raw)
	if err := s.persistArtifacts(ctx, id, processed); err != nil {
		return s.failOCR(ctx, logCtx, id, "persisting ocr artifacts failed", err)
	}

	if _, err := s.meta.Update(ctx, id, func(d *models.Document) {
		d.PageCount = processed.TotalPages
		d.Status = models.StatusCompleted
		d.OCRError = ""
	}); err != nil {
		return s.failOCR(ctx, logCtx, id, "finalizing metadata failed", err)
	}
	logCtx.Info("ocr complete", "pages", processed.TotalPages, "images", len(processed.Images))
	return nil
}

// persistArtifacts writes every derived artifact: per-page markdown and image
// payloads concurrently, then the extracted text and the full result.
func (s *DocumentService) persistArtifacts(ctx context.Context, id string, result *models.ProcessedOCRResult) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(artifactConcurrency)

	for _, page := range result.Pages {
		page := page
		eg.Go(func() error {
			_, err := s.gw.StoreText(gctx, id, storage.PageName(page.PageNumber), page.Markdown, "text/markdown", "ocr/pages")
			if err != nil {
				return fmt.Errorf("page %d: %w", page.PageNumber, err)
			}
			return nil
		})
	}
	for _, img := range result.Images {
		img := img
		eg.Go(func() error {
			_, err := s.gw.StoreText(gctx, id, storage.ImageName(img.PageNumber, img.ImageIndex), img.ImageBase64, "text/plain", "ocr/images")
			if err != nil {
				return fmt.Errorf("image %d/%d: %w", img.PageNumber, img.ImageIndex, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if _, err := s.gw.StoreText(ctx, id, "extracted-text.md", result.FullText, "text/markdown", "ocr"); err != nil {
		return fmt.Errorf("extracted text: %w", err)
	}
	if _, err := s.gw.StoreJSON(ctx, id, "full-result.json", result, "ocr"); err != nil {
		return fmt.Errorf("full result: %w", err)
	}
	return nil
}

// failOCR records a failed attempt on the document and returns the wrapped
// error. A metadata write failure here leaves the status stale, which only
// an operator can resolve; log it loudly.
func (s *DocumentService) failOCR(ctx context.Context, logCtx *slog.Logger, id, message string, err error) error {
	full := fmt.Errorf("%s: %w", message, err)
	logCtx.Error(message, "error", err)
	if merr := s.meta.SetOCRError(ctx, id, full.Error()); merr != nil {
		logCtx.Error("CRITICAL: failed to record ocr error on metadata", "updateError", merr)
	}
	return full
}

// Retry re-runs OCR for a document. Stale artifacts from a prior successful
// run are deleted first, so a failed retry can never expose an old result.
// Unlike the initial upload, a renewed failure is returned to the caller.
func (s *DocumentService) Retry(ctx context.Context, id string) (*models.OCRStatus, error) {
	if err := validate.DocumentID(id); err != nil {
		return nil, err
	}
	doc, err := s.meta.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pdf, err := s.gw.GetFile(ctx, doc.Path)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("original file for document", id)
		}
		return nil, err
	}

	if _, err := s.gw.DeletePrefix(ctx, storage.OCRPrefix(id)); err != nil {
		return nil, fmt.Errorf("clear stale ocr artifacts: %w", err)
	}
	if _, err := s.meta.Update(ctx, id, func(d *models.Document) {
		d.OCRError = ""
		d.PageCount = 0
		d.Status = models.StatusProcessing
	}); err != nil {
		return nil, err
	}

	if err := s.runOCR(ctx, id, pdf); err != nil {
		return nil, err
	}
	return s.Status(ctx, id)
}

// Get returns one document record.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	if err := validate.DocumentID(id); err != nil {
		return nil, err
	}
	return s.meta.Get(ctx, id)
}

// List returns every document record, newest first.
func (s *DocumentService) List(ctx context.Context) ([]models.Document, error) {
	return s.meta.List(ctx)
}

// Delete verifies the document exists, then removes every object under its
// prefix (original, metadata, and all derived artifacts).
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if err := validate.DocumentID(id); err != nil {
		return err
	}
	if _, err := s.meta.Get(ctx, id); err != nil {
		return err
	}
	deleted, err := s.gw.DeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	s.log.Info("document deleted", "documentId", id, "objects", deleted)
	return nil
}

// Status reports the persisted lifecycle state.
func (s *DocumentService) Status(ctx context.Context, id string) (*models.OCRStatus, error) {
	if err := validate.DocumentID(id); err != nil {
		return nil, err
	}
	doc, err := s.meta.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.OCRStatus{
		DocumentID: doc.ID,
		Status:     doc.Status,
		PageCount:  doc.PageCount,
		Error:      doc.OCRError,
	}, nil
}

// Search rejects blank queries, then delegates to retrieval.
func (s *DocumentService) Search(ctx context.Context, id, query string) (*models.SearchResults, error) {
	if err := validate.DocumentID(id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("search query must not be empty")
	}
	return s.retrieval.Search(ctx, id, query)
}

// localPageCount probes the PDF structure locally for a page-count hint.
func localPageCount(pdf []byte) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(pdf), cfg)
}
