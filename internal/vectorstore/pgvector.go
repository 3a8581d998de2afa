package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/bookqa/internal/model"
	"github.com/xxxsen/bookqa/internal/pkg/dbutil"
)

type pgvectorConfig struct {
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

// pgvectorStore keeps chunks and their embeddings in one Postgres table
// with a pgvector column. Cosine similarity is derived from the <=>
// distance operator.
type pgvectorStore struct {
	db    *sql.DB
	table string
}

func init() {
	Register("pgvector", createPgvectorStore)
}

func createPgvectorStore(args interface{}) (Store, error) {
	cfg := &pgvectorConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector dsn is required")
	}
	if cfg.Table == "" {
		cfg.Table = "book_chunks"
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &pgvectorStore{db: db, table: cfg.Table}, nil
}

func (s *pgvectorStore) EnsureCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dim)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			module TEXT NOT NULL DEFAULT '',
			chapter TEXT NOT NULL DEFAULT '',
			source_file TEXT NOT NULL DEFAULT '',
			chunk_index INT NOT NULL DEFAULT 0
		)`, s.table, dim)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *pgvectorStore) Upsert(ctx context.Context, points []Point) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, title, content, module, chapter, source_file, chunk_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			module = EXCLUDED.module,
			chapter = EXCLUDED.chapter,
			source_file = EXCLUDED.source_file,
			chunk_index = EXCLUDED.chunk_index`, s.table)
	for _, p := range points {
		_, err := s.db.ExecContext(ctx, query,
			p.ID,
			pgvector.NewVector(p.Vector),
			p.Chunk.Title,
			p.Chunk.Body,
			p.Chunk.Module,
			p.Chunk.Chapter,
			p.Chunk.SourceFile,
			p.Chunk.ChunkIndex,
		)
		if err != nil {
			return fmt.Errorf("upsert point %s: %w", p.ID, err)
		}
	}
	return nil
}

func (s *pgvectorStore) Search(ctx context.Context, vector []float32, limit int) ([]ScoredID, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`
		SELECT id, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, s.table)
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()
	var out []ScoredID
	for rows.Next() {
		var item ScoredID
		if err := rows.Scan(&item.ID, &item.Score); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *pgvectorStore) Retrieve(ctx context.Context, ids []string) ([]model.ContentChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	values := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	where := map[string]interface{}{
		"_custom_ids": builder.In{"id": values},
	}
	sqlStr, args, err := builder.BuildSelect(s.table, where,
		[]string{"id", "title", "content", "module", "chapter", "source_file", "chunk_index"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	defer rows.Close()
	out := make([]model.ContentChunk, 0, len(ids))
	for rows.Next() {
		var chunk model.ContentChunk
		if err := rows.Scan(&chunk.ID, &chunk.Title, &chunk.Body, &chunk.Module, &chunk.Chapter, &chunk.SourceFile, &chunk.ChunkIndex); err != nil {
			return nil, err
		}
		out = append(out, chunk)
	}
	return out, rows.Err()
}

func (s *pgvectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}
