package contentstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookqa/internal/model"
	"github.com/xxxsen/bookqa/internal/vectorstore"
)

type fakeBackend struct {
	chunks       map[string]model.ContentChunk
	retrieveCall int
}

func (f *fakeBackend) EnsureCollection(context.Context, int) error { return nil }

func (f *fakeBackend) Upsert(context.Context, []vectorstore.Point) error { return nil }

func (f *fakeBackend) Search(context.Context, []float32, int) ([]vectorstore.ScoredID, error) {
	return nil, nil
}

func (f *fakeBackend) Count(context.Context) (int64, error) {
	return int64(len(f.chunks)), nil
}

func (f *fakeBackend) Retrieve(_ context.Context, ids []string) ([]model.ContentChunk, error) {
	f.retrieveCall++
	var out []model.ContentChunk
	for _, id := range ids {
		if chunk, ok := f.chunks[id]; ok {
			out = append(out, chunk)
		}
	}
	return out, nil
}

func newFakeBackend(ids ...string) *fakeBackend {
	chunks := make(map[string]model.ContentChunk, len(ids))
	for _, id := range ids {
		chunks[id] = model.ContentChunk{ID: id, Title: "t-" + id, Body: "body of " + id}
	}
	return &fakeBackend{chunks: chunks}
}

func TestStore_ResolveReadsThroughOnce(t *testing.T) {
	backend := newFakeBackend("a", "b")
	store := New(backend, 16, time.Minute)

	first, err := store.Resolve(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 1, backend.retrieveCall)

	second, err := store.Resolve(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, backend.retrieveCall, "cached ids must not hit the backend again")
}

func TestStore_ResolvePreservesInputOrder(t *testing.T) {
	backend := newFakeBackend("a", "b", "c")
	store := New(backend, 16, time.Minute)

	chunks, err := store.Resolve(context.Background(), []string{"c", "a", "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "a", "b"}, []string{chunks[0].ID, chunks[1].ID, chunks[2].ID})
}

func TestStore_ResolveDropsUnknownIDs(t *testing.T) {
	backend := newFakeBackend("a")
	store := New(backend, 16, time.Minute)

	chunks, err := store.Resolve(context.Background(), []string{"a", "gone"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "a", chunks[0].ID)
}

func TestStore_PrimeAvoidsBackend(t *testing.T) {
	backend := newFakeBackend()
	store := New(backend, 16, time.Minute)
	store.Prime([]model.ContentChunk{{ID: "x", Body: "primed"}})

	chunk, ok := store.Get(context.Background(), "x")
	require.True(t, ok)
	require.Equal(t, "primed", chunk.Body)
	require.Zero(t, backend.retrieveCall)
}

func TestStore_GetMissReturnsFalse(t *testing.T) {
	store := New(newFakeBackend(), 16, time.Minute)
	_, ok := store.Get(context.Background(), "missing")
	require.False(t, ok)
}
