package corpus

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookqa/internal/chunker"
	"github.com/xxxsen/bookqa/internal/model"
)

const (
	defaultModule = "intro"
)

type Loader struct {
	source        Source
	maxChunkChars int
	minChunkChars int
}

func NewLoader(source Source, maxChunkChars, minChunkChars int) *Loader {
	if maxChunkChars <= 0 {
		maxChunkChars = 1000
	}
	if minChunkChars <= 0 {
		minChunkChars = 50
	}
	return &Loader{
		source:        source,
		maxChunkChars: maxChunkChars,
		minChunkChars: minChunkChars,
	}
}

// Load walks the corpus and turns every markdown document into retrievable
// chunks. A document that fails to process is logged and skipped; the rest
// of the corpus still loads.
func (l *Loader) Load(ctx context.Context) ([]model.ContentChunk, error) {
	logger := logutil.GetLogger(ctx)
	var chunks []model.ContentChunk
	var docs int
	err := l.source.Walk(ctx, func(relPath string, content []byte) error {
		items, err := l.processDocument(relPath, content)
		if err != nil {
			logger.Warn("skip corpus document", zap.String("file", relPath), zap.Error(err))
			return nil
		}
		docs++
		chunks = append(chunks, items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus: %w", err)
	}
	logger.Info("corpus loaded", zap.Int("documents", docs), zap.Int("chunks", len(chunks)))
	return chunks, nil
}

func (l *Loader) processDocument(relPath string, content []byte) ([]model.ContentChunk, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	title, body := extractMarkdown(content)
	if title == "" {
		title = fileStem(relPath)
	}
	module, chapter := deriveLocation(relPath)

	pieces := chunker.Split(body, l.maxChunkChars)
	items := make([]model.ContentChunk, 0, len(pieces))
	for i, piece := range pieces {
		trimmed := strings.TrimSpace(piece)
		if len(trimmed) <= l.minChunkChars {
			continue
		}
		items = append(items, model.ContentChunk{
			ID:         uuid.NewString(),
			Title:      fmt.Sprintf("%s - Part %d", title, i+1),
			Body:       trimmed,
			Module:     module,
			Chapter:    chapter,
			SourceFile: relPath,
			ChunkIndex: i,
		})
	}
	return items, nil
}

// deriveLocation maps a document's relative path onto the corpus hierarchy:
// the first segment is the module, the second the chapter. Documents at the
// corpus root fall back to the "intro" module and their own file stem.
func deriveLocation(relPath string) (string, string) {
	parts := strings.Split(path.Clean(relPath), "/")
	module := defaultModule
	chapter := fileStem(relPath)
	if len(parts) >= 2 {
		module = parts[0]
		chapter = stripMarkdownExt(parts[1])
	}
	return module, chapter
}

func fileStem(relPath string) string {
	return stripMarkdownExt(path.Base(relPath))
}

func stripMarkdownExt(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".mdx"):
		return name[:len(name)-len(".mdx")]
	case strings.HasSuffix(lower, ".md"):
		return name[:len(name)-len(".md")]
	}
	return name
}
