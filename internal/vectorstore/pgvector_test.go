package vectorstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookqa/internal/model"
)

func openTestPgvector(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set, skipping pgvector test")
	}
	store, err := createPgvectorStore(map[string]interface{}{
		"dsn":   dsn,
		"table": fmt.Sprintf("book_chunks_test_%d", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	return store
}

func TestPgvectorStore_RoundTrip(t *testing.T) {
	store := openTestPgvector(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, 3))

	points := []Point{
		{
			ID:     "chunk-1",
			Vector: []float32{1, 0, 0},
			Chunk: model.ContentChunk{
				ID:      "chunk-1",
				Title:   "Nodes - Part 1",
				Body:    "ROS 2 nodes communicate over topics and services.",
				Module:  "ros2_concepts",
				Chapter: "nodes",
			},
		},
		{
			ID:     "chunk-2",
			Vector: []float32{0, 1, 0},
			Chunk: model.ContentChunk{
				ID:      "chunk-2",
				Title:   "Gazebo - Part 1",
				Body:    "Gazebo simulates robots in a physics environment.",
				Module:  "simulation",
				Chapter: "gazebo",
			},
		},
	}
	require.NoError(t, store.Upsert(ctx, points))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "chunk-1", hits[0].ID)
	require.InDelta(t, 1.0, hits[0].Score, 0.001)

	chunks, err := store.Retrieve(ctx, []string{"chunk-2", "chunk-1"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// Upsert of an existing id replaces the record instead of duplicating it.
	points[0].Chunk.Body = "updated body text"
	require.NoError(t, store.Upsert(ctx, points[:1]))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}
