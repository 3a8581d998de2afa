package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/bookqa/internal/config"
	"github.com/xxxsen/bookqa/internal/model"
)

// ScoredID is one nearest-neighbor hit: a chunk id and its similarity
// score, higher meaning more relevant.
type ScoredID struct {
	ID    string
	Score float64
}

// Point is one record to persist: the chunk plus its embedding.
type Point struct {
	ID     string
	Vector []float32
	Chunk  model.ContentChunk
}

type Store interface {
	// EnsureCollection prepares the backing collection with the given
	// vector dimensionality and cosine similarity, creating it if absent.
	EnsureCollection(ctx context.Context, dim int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredID, error)
	// Retrieve resolves ids to full chunks; unknown ids are silently
	// omitted from the result.
	Retrieve(ctx context.Context, ids []string) ([]model.ContentChunk, error)
	Count(ctx context.Context) (int64, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.VectorStoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("vector store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector store config: %w", err)
	}
	return nil
}
