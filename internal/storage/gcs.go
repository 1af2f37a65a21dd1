package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/mannyyang/docubeam/internal/apperr"
)

// GCSStore implements ObjectStore on a Google Cloud Storage bucket.
type GCSStore struct {
	bucket *gcs.BucketHandle
}

// NewGCSStore wraps one bucket of an existing client.
func NewGCSStore(client *gcs.Client, bucket string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucket)}
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	return s.write(w, key, data, contentType)
}

func (s *GCSStore) PutIf(ctx context.Context, key string, data []byte, contentType string, gen int64) error {
	obj := s.bucket.Object(key)
	if gen == 0 {
		obj = obj.If(gcs.Conditions{DoesNotExist: true})
	} else {
		obj = obj.If(gcs.Conditions{GenerationMatch: gen})
	}
	return s.write(obj.NewWriter(ctx), key, data, contentType)
}

func (s *GCSStore) write(w *gcs.Writer, key string, data []byte, contentType string) error {
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", key, translatePrecondition(err))
	}
	// The write is not durable until Close succeeds.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", key, translatePrecondition(err))
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, int64, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, 0, apperr.NotFound("object", key)
		}
		return nil, 0, fmt.Errorf("open %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", key, err)
	}
	return data, r.Attrs.Generation, nil
}

func (s *GCSStore) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	pageSize := q.MaxKeys
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	it := s.bucket.Objects(ctx, &gcs.Query{Prefix: q.Prefix, Delimiter: q.Delimiter})
	pager := iterator.NewPager(it, pageSize, q.Cursor)

	var attrs []*gcs.ObjectAttrs
	next, err := pager.NextPage(&attrs)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", q.Prefix, err)
	}
	res := &ListResult{Truncated: next != "", NextCursor: next}
	for _, a := range attrs {
		if a.Prefix != "" {
			res.Prefixes = append(res.Prefixes, a.Prefix)
			continue
		}
		res.Keys = append(res.Keys, a.Name)
	}
	return res, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// translatePrecondition maps the HTTP 412 GCS returns for a failed
// conditional write onto the shared sentinel.
func translatePrecondition(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 412 {
		return apperr.ErrPreconditionFailed
	}
	return err
}
