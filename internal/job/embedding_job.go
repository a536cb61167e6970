package job

import (
	"context"

	"github.com/acentos/bookstore/internal/service"
)

// EmbeddingJob runs the pending-embedding pass on a cron schedule so that
// books added through the API or an import pick up their vector without a
// manual CLI run.
type EmbeddingJob struct {
	embeddings *service.EmbeddingService
	opts       service.EmbedOptions
}

func NewEmbeddingJob(embeddings *service.EmbeddingService, opts service.EmbedOptions) *EmbeddingJob {
	return &EmbeddingJob{embeddings: embeddings, opts: opts}
}

func (j *EmbeddingJob) Name() string {
	return "embedding_generator"
}

func (j *EmbeddingJob) Run(ctx context.Context) error {
	if j.embeddings == nil {
		return nil
	}
	_, err := j.embeddings.ProcessPending(ctx, j.opts)
	return err
}
