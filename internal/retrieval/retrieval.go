// Package retrieval computes read-side views over stored OCR artifacts.
// Nothing here mutates state.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mannyyang/docubeam/internal/apperr"
	"github.com/mannyyang/docubeam/internal/models"
	"github.com/mannyyang/docubeam/internal/storage"
	"github.com/mannyyang/docubeam/internal/validate"
)

// Service derives document views from the object store.
type Service struct {
	gw  *storage.Gateway
	log *slog.Logger
}

// NewService builds a retrieval Service.
func NewService(gw *storage.Gateway, log *slog.Logger) *Service {
	return &Service{gw: gw, log: log}
}

// OCRResult returns the full normalized OCR payload, or a NotFoundError when
// OCR has not completed for the document.
func (s *Service) OCRResult(ctx context.Context, id string) (*models.ProcessedOCRResult, error) {
	var result models.ProcessedOCRResult
	err := s.gw.GetJSON(ctx, storage.FullResultPath(id), &result)
	if apperr.IsNotFound(err) {
		return nil, apperr.NotFound("ocr result for document", id)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExtractedText returns the concatenated page markdown.
func (s *Service) ExtractedText(ctx context.Context, id string) (string, error) {
	text, err := s.gw.GetText(ctx, storage.ExtractedTextPath(id))
	if apperr.IsNotFound(err) {
		return "", apperr.NotFound("extracted text for document", id)
	}
	return text, err
}

// PageContent returns one page's markdown. An out-of-range or missing page is
// a NotFoundError, not a failure.
func (s *Service) PageContent(ctx context.Context, id string, pageNumber int) (*models.PageContent, error) {
	if err := validate.PageNumber(pageNumber, 0); err != nil {
		return nil, err
	}
	markdown, err := s.gw.GetText(ctx, storage.PagePath(id, pageNumber))
	if apperr.IsNotFound(err) {
		return nil, apperr.NotFound("page", fmt.Sprintf("%d of document %s", pageNumber, id))
	}
	if err != nil {
		return nil, err
	}
	return &models.PageContent{PageNumber: pageNumber, Markdown: markdown}, nil
}

// Images returns the image index for a document, reconstructing each image's
// storage path from its page number and page-scoped index. No completed OCR
// result, or a result without images, is a NotFoundError.
func (s *Service) Images(ctx context.Context, id string) ([]models.DocumentImage, error) {
	result, err := s.OCRResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(result.Images) == 0 {
		return nil, apperr.NotFound("images for document", id)
	}
	images := make([]models.DocumentImage, 0, len(result.Images))
	for _, img := range result.Images {
		images = append(images, models.DocumentImage{
			ID:           img.ID,
			PageNumber:   img.PageNumber,
			ImageIndex:   img.ImageIndex,
			Path:         storage.ImagePath(id, img.PageNumber, img.ImageIndex),
			TopLeftX:     img.TopLeftX,
			TopLeftY:     img.TopLeftY,
			BottomRightX: img.BottomRightX,
			BottomRightY: img.BottomRightY,
		})
	}
	return images, nil
}

// Summary derives the boolean/length rollup from the full OCR result.
func (s *Service) Summary(ctx context.Context, id string) (*models.DocumentSummary, error) {
	result, err := s.OCRResult(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.DocumentSummary{
		DocumentID: id,
		HasText:    len(result.FullText) > 0,
		HasImages:  len(result.Images) > 0,
		PageCount:  result.TotalPages,
		ImageCount: len(result.Images),
		TextLength: len(result.FullText),
	}, nil
}

// DocumentURLs constructs the resource endpoints for a document. Pure string
// construction; no storage access.
func DocumentURLs(baseURL, id string) models.DocumentURLs {
	root := baseURL + "/documents/" + id
	return models.DocumentURLs{
		File:   root + "/file",
		Text:   root + "/text",
		OCR:    root + "/ocr",
		Status: root + "/ocr/status",
		Images: root + "/images",
	}
}
