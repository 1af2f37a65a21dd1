// Package metadata manages the per-document JSON record at
// documents/{id}/metadata.json, including the persisted lifecycle status.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mannyyang/docubeam/internal/apperr"
	"github.com/mannyyang/docubeam/internal/models"
	"github.com/mannyyang/docubeam/internal/storage"
)

const (
	// casAttempts bounds the re-read retries after a lost write race.
	casAttempts = 4
	// fetchConcurrency bounds parallel record fetches during listing.
	fetchConcurrency = 8
)

// Store reads and writes metadata records on an object store. Updates use
// generation compare-and-swap, so concurrent read-merge-write cycles cannot
// silently overwrite each other.
type Store struct {
	store storage.ObjectStore
	log   *slog.Logger
}

// NewStore builds a metadata Store.
func NewStore(store storage.ObjectStore, log *slog.Logger) *Store {
	return &Store{store: store, log: log}
}

// Create persists a new record. A record that already exists for the id is an
// error: exactly one Document exists per id.
func (s *Store) Create(ctx context.Context, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	err = s.store.PutIf(ctx, storage.MetadataPath(doc.ID), data, "application/json", 0)
	if errors.Is(err, apperr.ErrPreconditionFailed) {
		return fmt.Errorf("metadata for document %s already exists", doc.ID)
	}
	if err != nil {
		return fmt.Errorf("create metadata: %w", err)
	}
	return nil
}

// Get returns the record for id, or a NotFoundError if absent.
func (s *Store) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, _, err := s.get(ctx, id)
	return doc, err
}

func (s *Store) get(ctx context.Context, id string) (*models.Document, int64, error) {
	data, gen, err := s.store.Get(ctx, storage.MetadataPath(id))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, 0, apperr.NotFound("document", id)
		}
		return nil, 0, err
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("unmarshal metadata for %s: %w", id, err)
	}
	return &doc, gen, nil
}

// Update applies mutate under generation compare-and-swap: read, mutate,
// conditional write, and re-read on a lost race, up to casAttempts times.
func (s *Store) Update(ctx context.Context, id string, mutate func(*models.Document)) (*models.Document, error) {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		doc, gen, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		mutate(doc)
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		err = s.store.PutIf(ctx, storage.MetadataPath(id), data, "application/json", gen)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, apperr.ErrPreconditionFailed) {
			return nil, fmt.Errorf("update metadata for %s: %w", id, err)
		}
		lastErr = err
		s.log.Warn("metadata write lost a race, retrying", "documentId", id, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("update metadata for %s after %d attempts: %w", id, casAttempts, lastErr)
}

// UpdatePageCount sets the page count.
func (s *Store) UpdatePageCount(ctx context.Context, id string, pageCount int) error {
	_, err := s.Update(ctx, id, func(d *models.Document) {
		d.PageCount = pageCount
	})
	return err
}

// SetStatus records a lifecycle transition.
func (s *Store) SetStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	_, err := s.Update(ctx, id, func(d *models.Document) {
		d.Status = status
	})
	return err
}

// SetOCRError records a failed OCR attempt: the message is persisted and the
// status flips to failed in the same write.
func (s *Store) SetOCRError(ctx context.Context, id, message string) error {
	_, err := s.Update(ctx, id, func(d *models.Document) {
		d.OCRError = message
		d.Status = models.StatusFailed
	})
	return err
}

// ClearOCRError removes the error annotation entirely (the field is dropped
// from the JSON, not set to null).
func (s *Store) ClearOCRError(ctx context.Context, id string) error {
	_, err := s.Update(ctx, id, func(d *models.Document) {
		d.OCRError = ""
	})
	return err
}

// List derives the document-id set from the first-level prefixes under
// documents/ and fetches each record individually. Per-document fetch
// failures are logged and skipped, not propagated. Results are sorted by
// upload date, newest first.
func (s *Store) List(ctx context.Context) ([]models.Document, error) {
	var ids []string
	cursor := ""
	for {
		page, err := s.store.List(ctx, storage.ListQuery{
			Prefix:    storage.RootPrefix,
			Delimiter: "/",
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("list document prefixes: %w", err)
		}
		for _, p := range page.Prefixes {
			id := strings.TrimSuffix(strings.TrimPrefix(p, storage.RootPrefix), "/")
			if id != "" {
				ids = append(ids, id)
			}
		}
		if !page.Truncated {
			break
		}
		cursor = page.NextCursor
	}

	// Non-nil even when empty, so listings serialize as [].
	docs := make([]models.Document, 0, len(ids))
	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchConcurrency)
	for _, id := range ids {
		id := id
		eg.Go(func() error {
			doc, err := s.Get(gctx, id)
			if err != nil {
				s.log.Warn("skipping unreadable metadata record", "documentId", id, "error", err)
				return nil
			}
			mu.Lock()
			docs = append(docs, *doc)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadDate.After(docs[j].UploadDate)
	})
	return docs, nil
}

// Delete removes the metadata record.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, storage.MetadataPath(id))
}
