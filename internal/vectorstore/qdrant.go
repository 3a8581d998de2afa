package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/bookqa/internal/model"
)

type qdrantConfig struct {
	URL            string `json:"url"`
	APIKey         string `json:"api_key"`
	Collection     string `json:"collection"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// qdrantStore is a minimal REST client to Qdrant. Only the endpoints the
// pipeline needs are covered: collection bootstrap, upsert, search, point
// retrieval and count.
type qdrantStore struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

func init() {
	Register("qdrant", createQdrantStore)
}

func createQdrantStore(args interface{}) (Store, error) {
	cfg := &qdrantConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "book_content"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &qdrantStore{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (s *qdrantStore) EnsureCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dim)
	}
	status, err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", s.collection), nil, nil)
	if err == nil && status == http.StatusOK {
		return nil
	}
	if err != nil && status != http.StatusNotFound {
		return err
	}
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if _, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *qdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(points))
	for _, p := range points {
		items = append(items, map[string]interface{}{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]interface{}{
				"title":       p.Chunk.Title,
				"content":     p.Chunk.Body,
				"module":      p.Chunk.Module,
				"chapter":     p.Chunk.Chapter,
				"source_file": p.Chunk.SourceFile,
				"chunk_index": p.Chunk.ChunkIndex,
			},
		})
	}
	body := map[string]interface{}{"points": items}
	path := fmt.Sprintf("/collections/%s/points?wait=true", s.collection)
	if _, err := s.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

func (s *qdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]ScoredID, error) {
	if limit <= 0 {
		limit = 5
	}
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": false,
	}
	var resp struct {
		Result []struct {
			ID    interface{} `json:"id"`
			Score float64     `json:"score"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", s.collection)
	if _, err := s.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}
	out := make([]ScoredID, 0, len(resp.Result))
	for _, hit := range resp.Result {
		out = append(out, ScoredID{ID: pointIDString(hit.ID), Score: hit.Score})
	}
	return out, nil
}

func (s *qdrantStore) Retrieve(ctx context.Context, ids []string) ([]model.ContentChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	body := map[string]interface{}{
		"ids":          ids,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      interface{} `json:"id"`
			Payload struct {
				Title      string `json:"title"`
				Content    string `json:"content"`
				Module     string `json:"module"`
				Chapter    string `json:"chapter"`
				SourceFile string `json:"source_file"`
				ChunkIndex int    `json:"chunk_index"`
			} `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points", s.collection)
	if _, err := s.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("retrieve points: %w", err)
	}
	out := make([]model.ContentChunk, 0, len(resp.Result))
	for _, rec := range resp.Result {
		out = append(out, model.ContentChunk{
			ID:         pointIDString(rec.ID),
			Title:      rec.Payload.Title,
			Body:       rec.Payload.Content,
			Module:     rec.Payload.Module,
			Chapter:    rec.Payload.Chapter,
			SourceFile: rec.Payload.SourceFile,
			ChunkIndex: rec.Payload.ChunkIndex,
		})
	}
	return out, nil
}

func (s *qdrantStore) Count(ctx context.Context) (int64, error) {
	body := map[string]interface{}{"exact": true}
	var resp struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/count", s.collection)
	if _, err := s.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return resp.Result.Count, nil
}

func (s *qdrantStore) do(ctx context.Context, method, path string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("qdrant request failed: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Qdrant point ids may come back as strings (uuids) or numbers.
func pointIDString(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
