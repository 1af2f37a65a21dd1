package metadata

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mannyyang/docubeam/internal/apperr"
	"github.com/mannyyang/docubeam/internal/models"
	"github.com/mannyyang/docubeam/internal/storage"
)

func testStore() (*Store, *storage.MemoryStore) {
	mem := storage.NewMemoryStore()
	return NewStore(mem, slog.Default()), mem
}

func testDoc(id string, uploaded time.Time) *models.Document {
	return &models.Document{
		ID:         id,
		Name:       "report.pdf",
		Size:       2048,
		Status:     models.StatusProcessing,
		UploadDate: uploaded,
		Path:       storage.OriginalPath(id, "report.pdf"),
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore()
	doc := testDoc("doc-1", time.Now().UTC())

	if err := s.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "report.pdf" || got.Status != models.StatusProcessing {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Exactly one record per id.
	if err := s.Create(ctx, doc); err == nil {
		t.Fatal("expected error creating duplicate metadata")
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	s, _ := testStore()
	_, err := s.Get(context.Background(), "ghost")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSetAndClearOCRError(t *testing.T) {
	ctx := context.Background()
	s, mem := testStore()
	if err := s.Create(ctx, testDoc("doc-1", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}

	if err := s.SetOCRError(ctx, "doc-1", "provider exploded"); err != nil {
		t.Fatal(err)
	}
	doc, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != models.StatusFailed || doc.OCRError != "provider exploded" {
		t.Fatalf("failure not recorded: %+v", doc)
	}

	if err := s.ClearOCRError(ctx, "doc-1"); err != nil {
		t.Fatal(err)
	}
	// The field must be dropped from the stored JSON, not nulled.
	raw, _, err := mem.Get(ctx, storage.MetadataPath("doc-1"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "ocrError") {
		t.Fatalf("ocrError still present in stored record: %s", raw)
	}
}

func TestUpdatePageCount(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore()
	if err := s.Create(ctx, testDoc("doc-1", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdatePageCount(ctx, "doc-1", 12); err != nil {
		t.Fatal(err)
	}
	doc, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if doc.PageCount != 12 {
		t.Fatalf("expected 12 pages, got %d", doc.PageCount)
	}
}

func TestUpdateSurvivesConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	s, mem := testStore()
	if err := s.Create(ctx, testDoc("doc-1", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}

	// Sneak a competing write in; the CAS loop must re-read and still apply
	// the mutation on top of the new generation.
	competing := testDoc("doc-1", time.Now().UTC())
	competing.PageCount = 99
	data, _ := json.Marshal(competing)
	if err := mem.Put(ctx, storage.MetadataPath("doc-1"), data, "application/json"); err != nil {
		t.Fatal(err)
	}

	updated, err := s.Update(ctx, "doc-1", func(d *models.Document) {
		d.Status = models.StatusCompleted
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.StatusCompleted || updated.PageCount != 99 {
		t.Fatalf("concurrent write lost: %+v", updated)
	}
}

func TestListSortsNewestFirstAndSkipsBrokenRecords(t *testing.T) {
	ctx := context.Background()
	s, mem := testStore()

	old := testDoc("doc-old", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	recent := testDoc("doc-new", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err := s.Create(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, recent); err != nil {
		t.Fatal(err)
	}
	// A document prefix with unreadable metadata must be skipped, not fail
	// the whole listing.
	if err := mem.Put(ctx, storage.MetadataPath("doc-broken"), []byte("{not json"), "application/json"); err != nil {
		t.Fatal(err)
	}
	// A prefix with artifacts but no metadata record is skipped the same way.
	if err := mem.Put(ctx, storage.PagePath("doc-empty", 1), []byte("x"), "text/markdown"); err != nil {
		t.Fatal(err)
	}

	docs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "doc-new" || docs[1].ID != "doc-old" {
		t.Fatalf("not sorted newest first: %s, %s", docs[0].ID, docs[1].ID)
	}
}

func TestListEmptyReturnsEmptySlice(t *testing.T) {
	s, _ := testStore()
	docs, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if docs == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore()
	if err := s.Create(ctx, testDoc("doc-1", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "doc-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "doc-1"); !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}
