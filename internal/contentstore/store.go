package contentstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookqa/internal/model"
	"github.com/xxxsen/bookqa/internal/vectorstore"
)

const (
	defaultCacheSize = 4096
	defaultCacheTTL  = 24 * time.Hour
)

// Store is the denormalized chunk cache in front of the vector database's
// point-retrieval API. Chunks are immutable once indexed, so concurrent
// inserts of the same id are idempotent; the bounded LRU keeps memory flat
// under long-running indexes.
type Store struct {
	backend vectorstore.Store
	cache   *expirable.LRU[string, model.ContentChunk]
}

func New(backend vectorstore.Store, size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Store{
		backend: backend,
		cache:   expirable.NewLRU[string, model.ContentChunk](size, nil, ttl),
	}
}

// Resolve maps ids to full chunks, preserving input order. Cached entries
// are served directly; misses are batch-fetched from the backend and
// cached. Ids the backend no longer knows are dropped from the result.
func (s *Store) Resolve(ctx context.Context, ids []string) ([]model.ContentChunk, error) {
	found := make(map[string]model.ContentChunk, len(ids))
	var misses []string
	for _, id := range ids {
		if chunk, ok := s.cache.Get(id); ok {
			found[id] = chunk
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) > 0 {
		fetched, err := s.backend.Retrieve(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, chunk := range fetched {
			s.cache.Add(chunk.ID, chunk)
			found[chunk.ID] = chunk
		}
		logutil.GetLogger(ctx).Debug("content cache filled",
			zap.Int("requested", len(ids)),
			zap.Int("misses", len(misses)),
			zap.Int("resolved", len(fetched)),
		)
	}
	out := make([]model.ContentChunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := found[id]; ok {
			out = append(out, chunk)
		}
	}
	return out, nil
}

// Get resolves a single id, read-through like Resolve.
func (s *Store) Get(ctx context.Context, id string) (model.ContentChunk, bool) {
	if chunk, ok := s.cache.Get(id); ok {
		return chunk, true
	}
	fetched, err := s.backend.Retrieve(ctx, []string{id})
	if err != nil || len(fetched) == 0 {
		return model.ContentChunk{}, false
	}
	s.cache.Add(fetched[0].ID, fetched[0])
	return fetched[0], true
}

// Prime seeds the cache during indexing so fresh chunks resolve without a
// backend round-trip.
func (s *Store) Prime(chunks []model.ContentChunk) {
	for _, chunk := range chunks {
		s.cache.Add(chunk.ID, chunk)
	}
}
