package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mannyyang/docubeam/internal/apperr"
	"github.com/mannyyang/docubeam/internal/metadata"
	"github.com/mannyyang/docubeam/internal/models"
	"github.com/mannyyang/docubeam/internal/retrieval"
	"github.com/mannyyang/docubeam/internal/storage"
	"github.com/mannyyang/docubeam/internal/validate"
)

// stubOCR returns a canned response or error, counting invocations.
type stubOCR struct {
	resp  *models.OCRResponse
	err   error
	calls int
}

func (s *stubOCR) ExtractText(ctx context.Context, pdf []byte) (*models.OCRResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type fixture struct {
	svc   *DocumentService
	store *storage.MemoryStore
	meta  *metadata.Store
	ocr   *stubOCR
}

func newFixture(ocrStub *stubOCR) *fixture {
	log := slog.Default()
	store := storage.NewMemoryStore()
	gw := storage.NewGateway(store, log)
	meta := metadata.NewStore(store, log)
	reads := retrieval.NewService(gw, log)
	svc := NewDocumentService(gw, meta, ocrStub, reads, SyncDispatcher{}, "", log)
	return &fixture{svc: svc, store: store, meta: meta, ocr: ocrStub}
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n" + strings.Repeat("0", 200) + "\n%%EOF")
}

func validUpload() UploadInput {
	data := pdfBytes()
	return UploadInput{
		FileName:    "report.pdf",
		ContentType: validate.PDFContentType,
		Size:        int64(len(data)),
		Data:        data,
	}
}

func okResponse() *models.OCRResponse {
	return &models.OCRResponse{
		Pages: []models.OCRPage{
			{Index: 0, Markdown: "First page", Images: []models.OCRImage{{ID: "img-a", ImageBase64: "AAAA"}}},
			{Index: 1, Markdown: "Second page"},
		},
	}
}

func TestUploadHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&stubOCR{resp: okResponse()})

	result, err := f.svc.Upload(ctx, validUpload())
	if err != nil {
		t.Fatal(err)
	}
	if result.ID == "" || result.Name != "report.pdf" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.URLs.Status == "" || result.URLs.File == "" {
		t.Fatalf("resource urls not populated: %+v", result.URLs)
	}

	// The synchronous dispatcher has already finished OCR.
	doc, err := f.meta.Get(ctx, result.ID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", doc.Status)
	}
	if doc.PageCount != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount)
	}
	if doc.FileHash == "" {
		t.Fatal("file hash not recorded")
	}

	for _, key := range []string{
		storage.OriginalPath(result.ID, "report.pdf"),
		storage.FullResultPath(result.ID),
		storage.ExtractedTextPath(result.ID),
		storage.PagePath(result.ID, 1),
		storage.PagePath(result.ID, 2),
		storage.ImagePath(result.ID, 1, 0),
	} {
		if _, _, err := f.store.Get(ctx, key); err != nil {
			t.Errorf("expected artifact %s: %v", key, err)
		}
	}
}

func TestUploadSucceedsWhenOCRFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&stubOCR{err: &apperr.ProviderError{StatusCode: 500, Message: "provider down"}})

	result, err := f.svc.Upload(ctx, validUpload())
	if err != nil {
		t.Fatalf("upload must not fail when ocr fails: %v", err)
	}
	if result.PageCount != 0 {
		t.Fatalf("expected pageCount 0, got %d", result.PageCount)
	}
	if result.URLs.Status == "" {
		t.Fatal("status url must be populated")
	}

	status, err := f.svc.Status(ctx, result.ID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != models.StatusFailed {
		t.Fatalf("expected failed status, got %s", status.Status)
	}
	if !strings.Contains(status.Error, "provider down") {
		t.Fatalf("captured error not surfaced: %q", status.Error)
	}

	// The original is stored even though enrichment failed.
	doc, err := f.meta.Get(ctx, result.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.store.Get(ctx, doc.Path); err != nil {
		t.Fatalf("original missing: %v", err)
	}
}

func TestUploadValidationFailuresPersistNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&stubOCR{resp: okResponse()})

	cases := []UploadInput{
		{FileName: "a.txt", ContentType: "text/plain", Size: 1024, Data: pdfBytes()},
		{FileName: "a.pdf", ContentType: validate.PDFContentType, Size: 0, Data: nil},
		{FileName: "CON.pdf", ContentType: validate.PDFContentType, Size: 1024, Data: pdfBytes()},
		{FileName: "tiny.pdf", ContentType: validate.PDFContentType, Size: 10, Data: []byte("%PDF-tiny")},
	}
	for _, in := range cases {
		if _, err := f.svc.Upload(ctx, in); !apperr.IsValidation(err) {
			t.Fatalf("expected ValidationError for %q, got %v", in.FileName, err)
		}
	}
	if f.store.Len() != 0 {
		t.Fatalf("validation failures must persist nothing, found %v", f.store.Keys())
	}
	if f.ocr.calls != 0 {
		t.Fatalf("ocr must not be called, got %d calls", f.ocr.calls)
	}
}

func TestRetryAfterFailureSucceeds(t *testing.T) {
	ctx := context.Background()
	stub := &stubOCR{err: errors.New("transient outage")}
	f := newFixture(stub)

	result, err := f.svc.Upload(ctx, validUpload())
	if err != nil {
		t.Fatal(err)
	}

	stub.err = nil
	stub.resp = okResponse()
	status, err := f.svc.Retry(ctx, result.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if status.Status != models.StatusCompleted || status.PageCount != 2 {
		t.Fatalf("unexpected status after retry: %+v", status)
	}
	if status.Error != "" {
		t.Fatalf("error not cleared by successful retry: %q", status.Error)
	}
}

func TestFailedRetryClearsStaleResultAndSurfacesError(t *testing.T) {
	ctx := context.Background()
	stub := &stubOCR{resp: okResponse()}
	f := newFixture(stub)

	result, err := f.svc.Upload(ctx, validUpload())
	if err != nil {
		t.Fatal(err)
	}

	// First run succeeded; now the provider breaks.
	stub.resp = nil
	stub.err = errors.New("quota exceeded")
	if _, err := f.svc.Retry(ctx, result.ID); err == nil {
		t.Fatal("retry failure must be surfaced to the caller")
	}

	// The stale successful result must be gone, not left to contradict the
	// failed status.
	if _, _, err := f.store.Get(ctx, storage.FullResultPath(result.ID)); !apperr.IsNotFound(err) {
		t.Fatalf("stale full result survived a failed retry: %v", err)
	}
	status, err := f.svc.Status(ctx, result.ID)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != models.StatusFailed || status.PageCount != 0 {
		t.Fatalf("unexpected status after failed retry: %+v", status)
	}
}

func TestRetryUnknownDocument(t *testing.T) {
	f := newFixture(&stubOCR{})
	_, err := f.svc.Retry(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteRemovesAllArtifacts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&stubOCR{resp: okResponse()})

	result, err := f.svc.Upload(ctx, validUpload())
	if err != nil {
		t.Fatal(err)
	}
	if f.store.Len() == 0 {
		t.Fatal("expected stored artifacts before delete")
	}

	if err := f.svc.Delete(ctx, result.ID); err != nil {
		t.Fatal(err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("objects survived delete: %v", f.store.Keys())
	}

	if err := f.svc.Delete(ctx, result.ID); !apperr.IsNotFound(err) {
		t.Fatalf("deleting a deleted document should be not-found, got %v", err)
	}
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&stubOCR{resp: okResponse()})
	result, err := f.svc.Upload(ctx, validUpload())
	if err != nil {
		t.Fatal(err)
	}

	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := f.svc.Search(ctx, result.ID, q); !apperr.IsValidation(err) {
			t.Fatalf("expected ValidationError for query %q, got %v", q, err)
		}
	}

	results, err := f.svc.Search(ctx, result.ID, "second")
	if err != nil {
		t.Fatal(err)
	}
	if results.TotalMatches != 1 || results.Matches[0].PageNumber != 2 {
		t.Fatalf("unexpected search results: %+v", results)
	}
}

func TestGetValidatesID(t *testing.T) {
	f := newFixture(&stubOCR{})
	if _, err := f.svc.Get(context.Background(), "not-a-uuid"); !apperr.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&stubOCR{resp: okResponse()})

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Upload(ctx, validUpload()); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := f.svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].UploadDate.Before(docs[1].UploadDate) {
		t.Fatalf("not sorted newest first: %v then %v", docs[0].UploadDate, docs[1].UploadDate)
	}
}
