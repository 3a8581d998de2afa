package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/bookqa/internal/config"
)

// WalkFunc receives one corpus document: its path relative to the source
// root and the raw markdown bytes.
type WalkFunc func(relPath string, content []byte) error

type Source interface {
	Walk(ctx context.Context, fn WalkFunc) error
}

type Factory func(args interface{}) (Source, error)

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

func NewSource(cfg config.CorpusConfig) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Source))
	if key == "" {
		return nil, fmt.Errorf("corpus.source is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported corpus source: %s", cfg.Source)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("corpus source config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode corpus source config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode corpus source config: %w", err)
	}
	return nil
}

func isMarkdownFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".mdx")
}
