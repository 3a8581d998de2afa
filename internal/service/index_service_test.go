package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookqa/internal/contentstore"
	"github.com/xxxsen/bookqa/internal/corpus"
	"github.com/xxxsen/bookqa/internal/vectorstore"
)

type batchRecordingStore struct {
	fakeVectorStore
	batches   [][]vectorstore.Point
	failBatch int // 1-based batch index to fail, 0 = none
	points    int64
}

func (b *batchRecordingStore) Upsert(_ context.Context, points []vectorstore.Point) error {
	b.batches = append(b.batches, points)
	if b.failBatch == len(b.batches) {
		return errors.New("upload failed")
	}
	b.points += int64(len(points))
	return nil
}

func (b *batchRecordingStore) Count(context.Context) (int64, error) {
	return b.points, nil
}

type sliceSource struct {
	docs []struct{ path, content string }
}

func (s *sliceSource) Walk(_ context.Context, fn corpus.WalkFunc) error {
	for _, doc := range s.docs {
		if err := fn(doc.path, []byte(doc.content)); err != nil {
			return err
		}
	}
	return nil
}

func corpusWithDocs(n int) corpus.Source {
	source := &sliceSource{}
	for i := 0; i < n; i++ {
		body := fmt.Sprintf("# Doc %d\n\nThis document number %d talks about robot middleware in enough detail to pass the substantiveness threshold.", i, i)
		source.docs = append(source.docs, struct{ path, content string }{
			path:    fmt.Sprintf("module_%d/doc_%d.md", i%3, i),
			content: body,
		})
	}
	return source
}

func newIndexService(source corpus.Source, store vectorstore.Store, batchSize int) (*IndexService, *contentstore.Store) {
	loader := corpus.NewLoader(source, 1000, 50)
	content := contentstore.New(store, 1024, time.Minute)
	return NewIndexService(loader, &fakeEmbedder{}, store, content, 3, batchSize), content
}

func TestReindex_UploadsInBatches(t *testing.T) {
	store := &batchRecordingStore{}
	svc, _ := newIndexService(corpusWithDocs(7), store, 3)

	indexed, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, indexed)
	require.Len(t, store.batches, 3)
	require.Len(t, store.batches[0], 3)
	require.Len(t, store.batches[2], 1)
}

func TestReindex_FailingBatchDoesNotAbortRest(t *testing.T) {
	store := &batchRecordingStore{failBatch: 1}
	svc, _ := newIndexService(corpusWithDocs(5), store, 2)

	indexed, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	require.Len(t, store.batches, 3)
	// First batch of 2 failed; the remaining 3 chunks still went up.
	require.Equal(t, 3, indexed)
}

func TestReindex_PrimesContentStore(t *testing.T) {
	store := &batchRecordingStore{}
	svc, content := newIndexService(corpusWithDocs(2), store, 10)

	_, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	require.Len(t, store.batches, 1)
	id := store.batches[0][0].ID
	chunk, ok := content.Get(context.Background(), id)
	require.True(t, ok)
	require.True(t, strings.Contains(chunk.Body, "robot middleware"))
}

func TestEnsureReady_IndexesOnlyWhenEmpty(t *testing.T) {
	store := &batchRecordingStore{}
	svc, _ := newIndexService(corpusWithDocs(2), store, 10)

	require.NoError(t, svc.EnsureReady(context.Background()))
	require.Len(t, store.batches, 1, "empty collection must trigger an index pass")

	require.NoError(t, svc.EnsureReady(context.Background()))
	require.Len(t, store.batches, 1, "populated collection must not reindex")
}
