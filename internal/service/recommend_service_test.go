package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acentos/bookstore/internal/model"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
)

type fakeEmbedder struct {
	vector    []float32
	err       error
	calls     int
	batches   [][]string
	modelName string
	dims      int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbeddingModelName() string {
	if f.modelName == "" {
		return "test-embed"
	}
	return f.modelName
}

func (f *fakeEmbedder) EmbeddingDims() int {
	if f.dims == 0 {
		return len(f.vector)
	}
	return f.dims
}

type fakeRecommendStore struct {
	vectors []model.BookVector
	books   map[int64]model.Book
	listErr error
}

func (f *fakeRecommendStore) ListEmbedded(ctx context.Context, modelName string) ([]model.BookVector, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.vectors, nil
}

func (f *fakeRecommendStore) ListByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	var books []model.Book
	for _, id := range ids {
		if b, ok := f.books[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

func TestRecommend_EmptyPromptMakesNoProviderCall(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	svc := NewRecommendService(embedder, &fakeRecommendStore{}, 5)

	for _, prompt := range []string{"", "   ", "\t\n"} {
		_, err := svc.Recommend(context.Background(), prompt)
		require.ErrorIs(t, err, appErr.ErrInvalid)
	}
	require.Zero(t, embedder.calls)
}

func TestRecommend_NoEmbeddedBooksIsNoResults(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	svc := NewRecommendService(embedder, &fakeRecommendStore{}, 5)

	_, err := svc.Recommend(context.Background(), "una novela de aventuras")
	require.ErrorIs(t, err, appErr.ErrNoResults)
}

func TestRecommend_ProviderFailureSurfaces(t *testing.T) {
	boom := errors.New("quota exceeded")
	embedder := &fakeEmbedder{err: boom}
	svc := NewRecommendService(embedder, &fakeRecommendStore{}, 5)

	_, err := svc.Recommend(context.Background(), "algo")
	require.ErrorIs(t, err, boom)
}

func TestRecommend_RanksAndResolvesBooks(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	store := &fakeRecommendStore{
		vectors: []model.BookVector{
			{BookID: 1, Embedding: []float32{1, 0, 0}},
			{BookID: 2, Embedding: []float32{0, 1, 0}},
			{BookID: 3, Embedding: []float32{0.9, 0.1, 0}},
		},
		books: map[int64]model.Book{
			1: {ID: 1, Title: "Exact"},
			2: {ID: 2, Title: "Orthogonal"},
			3: {ID: 3, Title: "Close"},
		},
	}
	svc := NewRecommendService(embedder, store, 2)

	result, err := svc.Recommend(context.Background(), "  una búsqueda  ")
	require.NoError(t, err)
	require.Equal(t, "una búsqueda", result.Prompt)
	require.Len(t, result.Recommendations, 2)
	require.Equal(t, int64(1), result.Recommendations[0].Book.ID)
	require.InDelta(t, 1.0, result.Recommendations[0].Score, 1e-9)
	require.Equal(t, int64(3), result.Recommendations[1].Book.ID)
}

func TestRecommend_MalformedVectorsAreSkipped(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	store := &fakeRecommendStore{
		vectors: []model.BookVector{
			{BookID: 1, Embedding: nil},
			{BookID: 2, Embedding: []float32{0, 0, 0}},
			{BookID: 3, Embedding: []float32{1, 0}},
			{BookID: 4, Embedding: []float32{0.5, 0.5, 0}},
		},
		books: map[int64]model.Book{4: {ID: 4, Title: "Only valid"}},
	}
	svc := NewRecommendService(embedder, store, 5)

	result, err := svc.Recommend(context.Background(), "prompt")
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	require.Equal(t, int64(4), result.Recommendations[0].Book.ID)
}

func TestRecommend_DeletedBookIsDropped(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeRecommendStore{
		vectors: []model.BookVector{
			{BookID: 1, Embedding: []float32{1, 0}},
			{BookID: 2, Embedding: []float32{0.9, 0.1}},
		},
		// Book 1 was deleted after its vector was read.
		books: map[int64]model.Book{2: {ID: 2, Title: "Still here"}},
	}
	svc := NewRecommendService(embedder, store, 5)

	result, err := svc.Recommend(context.Background(), "prompt")
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	require.Equal(t, int64(2), result.Recommendations[0].Book.ID)
}
