package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// deleteConcurrency bounds parallel deletes during document teardown.
const deleteConcurrency = 10

// Gateway is the uniform byte/JSON/text read-write-list-delete surface over
// the canonical layout. Every write is namespaced under documents/{id}/...;
// reads are live fetches with no caching.
type Gateway struct {
	store ObjectStore
	log   *slog.Logger
}

// NewGateway builds a Gateway on the given backend.
func NewGateway(store ObjectStore, log *slog.Logger) *Gateway {
	return &Gateway{store: store, log: log}
}

// objectPath joins a document id, an optional sub path, and an object name.
func objectPath(documentID, subPath, name string) string {
	if subPath == "" {
		return DocumentPrefix(documentID) + name
	}
	return DocumentPrefix(documentID) + strings.Trim(subPath, "/") + "/" + name
}

// StoreFile writes raw bytes under the document's prefix and returns the full
// path written.
func (g *Gateway) StoreFile(ctx context.Context, documentID, name string, data []byte, contentType, subPath string) (string, error) {
	path := objectPath(documentID, subPath, name)
	if err := g.store.Put(ctx, path, data, contentType); err != nil {
		return "", fmt.Errorf("store file: %w", err)
	}
	return path, nil
}

// StoreJSON marshals v and writes it under the document's prefix.
func (g *Gateway) StoreJSON(ctx context.Context, documentID, name string, v any, subPath string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	path := objectPath(documentID, subPath, name)
	if err := g.store.Put(ctx, path, data, "application/json"); err != nil {
		return "", fmt.Errorf("store json: %w", err)
	}
	return path, nil
}

// StoreText writes a text payload under the document's prefix.
func (g *Gateway) StoreText(ctx context.Context, documentID, name, text, contentType, subPath string) (string, error) {
	path := objectPath(documentID, subPath, name)
	if err := g.store.Put(ctx, path, []byte(text), contentType); err != nil {
		return "", fmt.Errorf("store text: %w", err)
	}
	return path, nil
}

// GetFile returns the bytes at path. Absence is an apperr.NotFoundError,
// never a panic.
func (g *Gateway) GetFile(ctx context.Context, path string) ([]byte, error) {
	data, _, err := g.store.Get(ctx, path)
	return data, err
}

// GetJSON unmarshals the object at path into out.
func (g *Gateway) GetJSON(ctx context.Context, path string, out any) error {
	data, _, err := g.store.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}

// GetText returns the object at path as a string.
func (g *Gateway) GetText(ctx context.Context, path string) (string, error) {
	data, _, err := g.store.Get(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ListObjects returns one page of keys under prefix. Callers must honor the
// Truncated flag.
func (g *Gateway) ListObjects(ctx context.Context, prefix, delimiter string) (*ListResult, error) {
	return g.store.List(ctx, ListQuery{Prefix: prefix, Delimiter: delimiter})
}

// DeleteFile removes one object.
func (g *Gateway) DeleteFile(ctx context.Context, path string) error {
	return g.store.Delete(ctx, path)
}

// DeletePrefix lists page-wise until exhaustion and deletes every object
// under prefix, one delete call per key. Returns the number of objects
// removed.
func (g *Gateway) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var keys []string
	cursor := ""
	for {
		page, err := g.store.List(ctx, ListQuery{Prefix: prefix, Cursor: cursor})
		if err != nil {
			return 0, fmt.Errorf("list %s for delete: %w", prefix, err)
		}
		keys = append(keys, page.Keys...)
		if !page.Truncated {
			break
		}
		cursor = page.NextCursor
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(deleteConcurrency)
	for _, key := range keys {
		key := key
		eg.Go(func() error {
			if err := g.store.Delete(gctx, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	g.log.Info("deleted prefix", "prefix", prefix, "objects", len(keys))
	return len(keys), nil
}

// DeleteDocument removes every object a document owns.
func (g *Gateway) DeleteDocument(ctx context.Context, id string) (int, error) {
	return g.DeletePrefix(ctx, DocumentPrefix(id))
}
