package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mannyyang/docubeam/internal/apperr"
)

// MemoryStore is an in-memory ObjectStore used by tests and local runs. It
// models generations so compare-and-swap behavior matches the GCS backend.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
	generation  int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(key, data, contentType)
	return nil
}

func (s *MemoryStore) PutIf(_ context.Context, key string, data []byte, contentType string, gen int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, exists := s.objects[key]
	if gen == 0 {
		if exists {
			return apperr.ErrPreconditionFailed
		}
	} else if !exists || cur.generation != gen {
		return apperr.ErrPreconditionFailed
	}
	s.set(key, data, contentType)
	return nil
}

func (s *MemoryStore) set(key string, data []byte, contentType string) {
	gen := int64(1)
	if cur, ok := s.objects[key]; ok {
		gen = cur.generation + 1
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key] = memObject{data: cp, contentType: contentType, generation: gen}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, 0, apperr.NotFound("object", key)
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, obj.generation, nil
}

func (s *MemoryStore) List(_ context.Context, q ListQuery) (*ListResult, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		if strings.HasPrefix(k, q.Prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	// Collapse keys into entries the same way a delimiter listing would.
	var entries []string
	prefixes := make(map[string]bool)
	for _, k := range keys {
		if q.Delimiter == "" {
			entries = append(entries, k)
			continue
		}
		rest := strings.TrimPrefix(k, q.Prefix)
		if i := strings.Index(rest, q.Delimiter); i >= 0 {
			p := q.Prefix + rest[:i+len(q.Delimiter)]
			if !prefixes[p] {
				prefixes[p] = true
				entries = append(entries, p)
			}
			continue
		}
		entries = append(entries, k)
	}

	start := 0
	if q.Cursor != "" {
		start = sort.SearchStrings(entries, q.Cursor)
	}
	pageSize := q.MaxKeys
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	end := start + pageSize
	res := &ListResult{}
	if end < len(entries) {
		res.Truncated = true
		res.NextCursor = entries[end]
	} else {
		end = len(entries)
	}
	for _, e := range entries[start:end] {
		if prefixes[e] {
			res.Prefixes = append(res.Prefixes, e)
		} else {
			res.Keys = append(res.Keys, e)
		}
	}
	return res, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Keys returns every stored key, sorted.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
