package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookqa/internal/ai"
	"github.com/xxxsen/bookqa/internal/contentstore"
	"github.com/xxxsen/bookqa/internal/model"
	appErr "github.com/xxxsen/bookqa/internal/pkg/errors"
	"github.com/xxxsen/bookqa/internal/vectorstore"
)

const (
	noContentAnswer      = "I couldn't find relevant content in the course materials to answer your question."
	defaultRetrieveLimit = 5
	defaultSearchLimit   = 10
	searchSnippetLen     = 300
	searchRelevance      = 0.9
)

type RAGOptions struct {
	// Confidence is the fixed score attached to answered questions; no
	// dynamic scoring is implemented.
	Confidence float64
	// VerifyGrounding wires the grounding validator's verdict into the
	// emitted grounded_in_book flag. Off by default: the flag then only
	// means "retrieval succeeded".
	VerifyGrounding bool
	RetrieveLimit   int
}

type RAGService struct {
	embedder  ai.IEmbedder
	store     vectorstore.Store
	content   *contentstore.Store
	generator AnswerGenerator
	validator *GroundingValidator
	opts      RAGOptions
}

func NewRAGService(embedder ai.IEmbedder, store vectorstore.Store, content *contentstore.Store, generator AnswerGenerator, opts RAGOptions) *RAGService {
	if opts.Confidence <= 0 {
		opts.Confidence = 0.95
	}
	if opts.RetrieveLimit <= 0 {
		opts.RetrieveLimit = defaultRetrieveLimit
	}
	return &RAGService{
		embedder:  embedder,
		store:     store,
		content:   content,
		generator: generator,
		validator: NewGroundingValidator(content),
		opts:      opts,
	}
}

// Retrieve finds the chunks most similar to the query: over-fetch twice the
// limit from the vector store, resolve ids through the content cache,
// apply the fuzzy module/chapter filters and truncate. Similarity order is
// preserved; no re-sorting happens after filtering. A backend failure comes
// back as a real error, distinguishable from an empty result.
func (s *RAGService) Retrieve(ctx context.Context, query, moduleFilter, chapterFilter string, limit int) ([]model.ContentChunk, error) {
	if limit <= 0 {
		limit = s.opts.RetrieveLimit
	}
	vector, err := s.embedder.Embed(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", appErr.ErrBackend, err)
	}
	hits, err := s.store.Search(ctx, vector, limit*2)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", appErr.ErrBackend, err)
	}
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}
	chunks, err := s.content.Resolve(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve content: %v", appErr.ErrBackend, err)
	}

	filtered := make([]model.ContentChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if moduleFilter != "" && !matchesLabel(chunk.Module, moduleFilter) {
			continue
		}
		if chapterFilter != "" && !matchesLabel(chunk.Chapter, chapterFilter) {
			continue
		}
		filtered = append(filtered, chunk)
		if len(filtered) >= limit {
			break
		}
	}
	return filtered, nil
}

// matchesLabel fuzzy-compares module/chapter slugs: lowercase, strip
// separator characters and accept mutual substrings, so "ros2_concepts"
// matches the filter "ros2".
func matchesLabel(label, filter string) bool {
	a := normalizeLabel(label)
	b := normalizeLabel(filter)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalizeLabel(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, s)
}

// ProcessQuestion runs the full pipeline: retrieve, assemble, generate,
// respond. Retrieval failure degrades to the "no relevant content"
// terminal response instead of failing the request.
func (s *RAGService) ProcessQuestion(ctx context.Context, q model.UserQuestion) (*model.ChatResponse, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("question", q.Question))

	retrieved, err := s.Retrieve(ctx, q.Question, q.ModuleContext, q.ChapterContext, s.opts.RetrieveLimit)
	if err != nil {
		logger.Error("retrieval failed, degrading to empty result", zap.Error(err))
		retrieved = nil
	}
	if len(retrieved) == 0 {
		return &model.ChatResponse{
			Answer:         noContentAnswer,
			Sources:        []string{},
			Confidence:     0.0,
			GroundedInBook: false,
			Timestamp:      time.Now(),
		}, nil
	}

	prompt := BuildPrompt(retrieved, q.Question)
	answer, err := s.generator.Generate(ctx, prompt, q.Question)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]string, 0, len(retrieved))
	for _, chunk := range retrieved {
		sources = append(sources, chunk.ID)
	}
	grounded := true
	if s.opts.VerifyGrounding {
		grounded = s.validator.IsGrounded(ctx, answer, sources)
	}
	logger.Info("question answered",
		zap.Int("sources", len(sources)),
		zap.Bool("grounded", grounded),
	)
	return &model.ChatResponse{
		Answer:         answer,
		Sources:        sources,
		Confidence:     s.opts.Confidence,
		GroundedInBook: grounded,
		Timestamp:      time.Now(),
	}, nil
}

// SearchContent is the direct search surface. Unlike ProcessQuestion, a
// backend failure is surfaced to the caller so the API can report a
// degraded service instead of an empty list.
func (s *RAGService) SearchContent(ctx context.Context, q model.SearchQuery) ([]model.SearchResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	chunks, err := s.Retrieve(ctx, q.Query, q.ModuleFilter, "", limit)
	if err != nil {
		return nil, err
	}
	results := make([]model.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, model.SearchResult{
			ID:        chunk.ID,
			Title:     chunk.Title,
			Content:   truncate(chunk.Body, searchSnippetLen) + "...",
			Module:    chunk.Module,
			Chapter:   chunk.Chapter,
			Relevance: searchRelevance,
		})
	}
	return results, nil
}

// IsGrounded exposes the lexical grounding check as an independently
// callable operation.
func (s *RAGService) IsGrounded(ctx context.Context, answer string, sourceIDs []string) bool {
	return s.validator.IsGrounded(ctx, answer, sourceIDs)
}
