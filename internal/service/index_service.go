package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookqa/internal/ai"
	"github.com/xxxsen/bookqa/internal/contentstore"
	"github.com/xxxsen/bookqa/internal/corpus"
	"github.com/xxxsen/bookqa/internal/model"
	"github.com/xxxsen/bookqa/internal/vectorstore"
)

const defaultUploadBatchSize = 100

type IndexService struct {
	loader    *corpus.Loader
	embedder  ai.IEmbedder
	store     vectorstore.Store
	content   *contentstore.Store
	dimension int
	batchSize int
}

func NewIndexService(loader *corpus.Loader, embedder ai.IEmbedder, store vectorstore.Store, content *contentstore.Store, dimension, batchSize int) *IndexService {
	if batchSize <= 0 {
		batchSize = defaultUploadBatchSize
	}
	return &IndexService{
		loader:    loader,
		embedder:  embedder,
		store:     store,
		content:   content,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Reindex runs the one-shot indexing pass: load the corpus, embed every
// chunk and upsert in fixed-size batches. A failing chunk or batch is
// logged and skipped; the rest of the pass continues. Returns the number
// of chunks actually indexed.
func (s *IndexService) Reindex(ctx context.Context) (int, error) {
	logger := logutil.GetLogger(ctx)
	chunks, err := s.loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}

	indexed := 0
	batches := 0
	points := make([]vectorstore.Point, 0, s.batchSize)
	flush := func() {
		if len(points) == 0 {
			return
		}
		batches++
		if err := s.store.Upsert(ctx, points); err != nil {
			logger.Error("upload batch failed", zap.Int("batch", batches), zap.Int("size", len(points)), zap.Error(err))
			points = make([]vectorstore.Point, 0, s.batchSize)
			return
		}
		uploaded := make([]model.ContentChunk, 0, len(points))
		for _, p := range points {
			uploaded = append(uploaded, p.Chunk)
		}
		s.content.Prime(uploaded)
		indexed += len(points)
		logger.Info("uploaded batch", zap.Int("batch", batches), zap.Int("size", len(points)))
		points = make([]vectorstore.Point, 0, s.batchSize)
	}

	for _, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk.Title+"\n"+chunk.Body, "RETRIEVAL_DOCUMENT")
		if err != nil {
			logger.Warn("embed chunk failed, skipping", zap.String("id", chunk.ID), zap.String("file", chunk.SourceFile), zap.Error(err))
			continue
		}
		points = append(points, vectorstore.Point{ID: chunk.ID, Vector: vector, Chunk: chunk})
		if len(points) >= s.batchSize {
			flush()
		}
	}
	flush()

	logger.Info("reindex finished", zap.Int("chunks", len(chunks)), zap.Int("indexed", indexed))
	return indexed, nil
}

// EnsureReady bootstraps the collection and, when it is empty, runs a
// first indexing pass so the service starts answerable.
func (s *IndexService) EnsureReady(ctx context.Context) error {
	if err := s.store.EnsureCollection(ctx, s.dimension); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count points: %w", err)
	}
	if count > 0 {
		logutil.GetLogger(ctx).Info("collection already populated", zap.Int64("points", count))
		return nil
	}
	_, err = s.Reindex(ctx)
	return err
}
