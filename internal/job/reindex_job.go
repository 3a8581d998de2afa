package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookqa/internal/service"
)

// ReindexJob rebuilds the vector index on a schedule so content edits
// land without an operator calling the admin endpoint.
type ReindexJob struct {
	indexer *service.IndexService
}

func NewReindexJob(indexer *service.IndexService) *ReindexJob {
	return &ReindexJob{indexer: indexer}
}

func (j *ReindexJob) Name() string {
	return "reindex"
}

func (j *ReindexJob) Run(ctx context.Context) error {
	if j.indexer == nil {
		return nil
	}
	indexed, err := j.indexer.Reindex(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("scheduled reindex complete", zap.Int("indexed_chunks", indexed))
	return nil
}
