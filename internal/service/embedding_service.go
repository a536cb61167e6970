package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/acentos/bookstore/internal/model"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
)

type EmbeddingStore interface {
	ListMissingEmbeddings(ctx context.Context, limit int) ([]model.Book, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32, modelName string) error
}

type EmbedOptions struct {
	BatchSize int
	// Delay separates successive provider calls to stay under rate limits;
	// Backoff is the longer pause after a failed batch.
	Delay   time.Duration
	Backoff time.Duration
}

func (o EmbedOptions) withDefaults() EmbedOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.Delay <= 0 {
		o.Delay = 1500 * time.Millisecond
	}
	if o.Backoff <= 0 {
		o.Backoff = 5 * time.Second
	}
	return o
}

type EmbedReport struct {
	Selected      int `json:"selected"`
	Embedded      int `json:"embedded"`
	Failed        int `json:"failed"`
	Skipped       int `json:"skipped"`
	Batches       int `json:"batches"`
	FailedBatches int `json:"failed_batches"`
}

// EmbeddingService fills in the embedding vector of every book that does not
// have one yet. It runs out-of-band (CLI or cron), one batch at a time.
type EmbeddingService struct {
	embedder Embedder
	store    EmbeddingStore
}

func NewEmbeddingService(embedder Embedder, store EmbeddingStore) *EmbeddingService {
	return &EmbeddingService{embedder: embedder, store: store}
}

// ProcessPending makes one pass over all books missing a vector. Each batch
// is embedded in a single provider call and persisted before the next batch
// starts, so progress survives a failure later in the run. A failed batch is
// logged and counted; its books stay without vectors and are picked up again
// by the next run.
func (s *EmbeddingService) ProcessPending(ctx context.Context, opts EmbedOptions) (*EmbedReport, error) {
	opts = opts.withDefaults()
	logger := logutil.GetLogger(ctx)

	pending, err := s.store.ListMissingEmbeddings(ctx, 0)
	if err != nil {
		return nil, err
	}
	report := &EmbedReport{Selected: len(pending)}
	if len(pending) == 0 {
		logger.Info("no books pending embedding")
		return report, nil
	}
	modelName := s.embedder.EmbeddingModelName()
	logger.Info("embedding run started",
		zap.Int("pending", len(pending)),
		zap.Int("batch_size", opts.BatchSize),
		zap.String("model", modelName),
	)

	for start := 0; start < len(pending); start += opts.BatchSize {
		if start > 0 {
			if err := sleepCtx(ctx, opts.Delay); err != nil {
				return report, err
			}
		}
		end := start + opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		report.Batches++

		texts := make([]string, 0, len(batch))
		ids := make([]int64, 0, len(batch))
		for _, book := range batch {
			text := buildEmbeddingText(book)
			if text == "" {
				report.Skipped++
				continue
			}
			texts = append(texts, text)
			ids = append(ids, book.ID)
		}
		if len(texts) == 0 {
			continue
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			report.FailedBatches++
			report.Failed += len(ids)
			logger.Error("embedding batch failed",
				zap.Int("batch", report.Batches),
				zap.Int("size", len(ids)),
				zap.Error(err),
			)
			if err := sleepCtx(ctx, opts.Backoff); err != nil {
				return report, err
			}
			continue
		}

		for i, id := range ids {
			if err := s.store.UpdateEmbedding(ctx, id, vectors[i], modelName); err != nil {
				if appErr.IsNotFound(err) {
					// Removed from the catalog mid-run.
					report.Skipped++
					continue
				}
				report.Failed++
				logger.Error("failed to save embedding", zap.Int64("book_id", id), zap.Error(err))
				continue
			}
			report.Embedded++
		}
		logger.Info("embedding batch completed",
			zap.Int("batch", report.Batches),
			zap.Int("embedded", report.Embedded),
			zap.Int("remaining", len(pending)-end),
		)
	}

	logger.Info("embedding run finished",
		zap.Int("selected", report.Selected),
		zap.Int("embedded", report.Embedded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed_batches", report.FailedBatches),
	)
	return report, nil
}

// buildEmbeddingText concatenates the descriptive fields into the text the
// vector is generated from. Empty fields are left out; a book with no usable
// text at all is skipped.
func buildEmbeddingText(book model.Book) string {
	parts := make([]string, 0, 4)
	if v := strings.TrimSpace(book.Title); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(book.Authors); v != "" {
		parts = append(parts, "Autor: "+v)
	}
	if v := strings.TrimSpace(book.Genre); v != "" {
		parts = append(parts, "Género: "+v)
	}
	if v := strings.TrimSpace(book.Publisher); v != "" {
		parts = append(parts, "Editorial: "+v)
	}
	return strings.Join(parts, ". ")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
