package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/acentos/bookstore/internal/model"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
	"github.com/acentos/bookstore/internal/rank"
)

// Embedder is the slice of ai.Manager the recommendation side needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingModelName() string
	EmbeddingDims() int
}

type RecommendStore interface {
	ListEmbedded(ctx context.Context, modelName string) ([]model.BookVector, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Book, error)
}

type Recommendation struct {
	Book  model.Book `json:"book"`
	Score float64    `json:"score"`
}

type RecommendResult struct {
	Prompt          string           `json:"prompt"`
	Recommendations []Recommendation `json:"recommendations"`
}

type RecommendService struct {
	embedder Embedder
	store    RecommendStore
	topK     int
}

func NewRecommendService(embedder Embedder, store RecommendStore, topK int) *RecommendService {
	if topK <= 0 {
		topK = 5
	}
	return &RecommendService{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

// Recommend embeds the prompt and ranks every embedded book against it.
// Nothing is cached: each call embeds and scans from scratch. The scan is
// O(N*D) over the catalog, which is fine at bookstore scale.
func (s *RecommendService) Recommend(ctx context.Context, prompt string) (*RecommendResult, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("prompt", trimmed))

	queryVec, err := s.embedder.Embed(ctx, trimmed)
	if err != nil {
		logger.Error("failed to embed prompt", zap.Error(err))
		return nil, err
	}

	// Only vectors produced by the active model are candidates; anything
	// generated by an older model waits for regeneration instead of being
	// compared across dimensionalities.
	vectors, err := s.store.ListEmbedded(ctx, s.embedder.EmbeddingModelName())
	if err != nil {
		logger.Error("failed to load candidate vectors", zap.Error(err))
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, appErr.ErrNoResults
	}

	candidates := make([]rank.Candidate, 0, len(vectors))
	for _, v := range vectors {
		candidates = append(candidates, rank.Candidate{ID: v.BookID, Vector: v.Embedding})
	}
	matches := rank.TopK(queryVec, candidates, s.topK)
	if len(matches) == 0 {
		return nil, appErr.ErrNoResults
	}

	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	books, err := s.store.ListByIDs(ctx, ids)
	if err != nil {
		logger.Error("failed to load recommended books", zap.Error(err))
		return nil, err
	}
	byID := make(map[int64]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	result := &RecommendResult{
		Prompt:          trimmed,
		Recommendations: make([]Recommendation, 0, len(matches)),
	}
	for _, m := range matches {
		book, ok := byID[m.ID]
		if !ok {
			// Deleted between ranking and lookup; skip it.
			continue
		}
		logger.Debug("recommendation match", zap.Int64("book_id", m.ID), zap.Float64("score", m.Score))
		result.Recommendations = append(result.Recommendations, Recommendation{Book: book, Score: m.Score})
	}
	if len(result.Recommendations) == 0 {
		return nil, appErr.ErrNoResults
	}
	return result, nil
}
