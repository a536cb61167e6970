package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acentos/bookstore/internal/model"
)

type fakeEmbeddingStore struct {
	pending []model.Book
	saved   map[int64][]float32
	models  map[int64]string
}

func newFakeEmbeddingStore(pending ...model.Book) *fakeEmbeddingStore {
	return &fakeEmbeddingStore{
		pending: pending,
		saved:   make(map[int64][]float32),
		models:  make(map[int64]string),
	}
}

func (f *fakeEmbeddingStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]model.Book, error) {
	var out []model.Book
	for _, b := range f.pending {
		if _, done := f.saved[b.ID]; done {
			continue
		}
		out = append(out, b)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeEmbeddingStore) UpdateEmbedding(ctx context.Context, id int64, embedding []float32, modelName string) error {
	f.saved[id] = embedding
	f.models[id] = modelName
	return nil
}

// failNTimesEmbedder fails its first n batch calls, then succeeds.
type failNTimesEmbedder struct {
	fakeEmbedder
	failures int
}

func (f *failNTimesEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("rate limited")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func fastOpts(batchSize int) EmbedOptions {
	return EmbedOptions{
		BatchSize: batchSize,
		Delay:     time.Millisecond,
		Backoff:   time.Millisecond,
	}
}

func TestProcessPending_NothingToDo(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	svc := NewEmbeddingService(embedder, newFakeEmbeddingStore())

	report, err := svc.ProcessPending(context.Background(), fastOpts(10))
	require.NoError(t, err)
	require.Zero(t, report.Selected)
	require.Zero(t, report.Batches)
	require.Zero(t, embedder.calls)
}

func TestProcessPending_EmbedsInBatches(t *testing.T) {
	var pending []model.Book
	for i := int64(1); i <= 25; i++ {
		pending = append(pending, model.Book{ID: i, Title: "Book", Authors: "Author"})
	}
	store := newFakeEmbeddingStore(pending...)
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	svc := NewEmbeddingService(embedder, store)

	report, err := svc.ProcessPending(context.Background(), fastOpts(10))
	require.NoError(t, err)
	require.Equal(t, 25, report.Selected)
	require.Equal(t, 25, report.Embedded)
	require.Equal(t, 3, report.Batches)
	// One provider call per batch, never one per book.
	require.Equal(t, 3, embedder.calls)
	require.Len(t, store.saved, 25)
	require.Equal(t, "test-embed", store.models[1])
}

func TestProcessPending_SecondRunSelectsNothing(t *testing.T) {
	store := newFakeEmbeddingStore(
		model.Book{ID: 1, Title: "Uno"},
		model.Book{ID: 2, Title: "Dos"},
	)
	embedder := &fakeEmbedder{vector: []float32{1}}
	svc := NewEmbeddingService(embedder, store)

	_, err := svc.ProcessPending(context.Background(), fastOpts(10))
	require.NoError(t, err)
	callsAfterFirst := embedder.calls

	report, err := svc.ProcessPending(context.Background(), fastOpts(10))
	require.NoError(t, err)
	require.Zero(t, report.Selected)
	require.Equal(t, callsAfterFirst, embedder.calls)
}

func TestProcessPending_FailedBatchContinues(t *testing.T) {
	var pending []model.Book
	for i := int64(1); i <= 20; i++ {
		pending = append(pending, model.Book{ID: i, Title: "Book"})
	}
	store := newFakeEmbeddingStore(pending...)
	embedder := &failNTimesEmbedder{failures: 1}
	embedder.vector = []float32{1}
	svc := NewEmbeddingService(embedder, store)

	report, err := svc.ProcessPending(context.Background(), fastOpts(10))
	require.NoError(t, err)
	require.Equal(t, 2, report.Batches)
	require.Equal(t, 1, report.FailedBatches)
	require.Equal(t, 10, report.Failed)
	require.Equal(t, 10, report.Embedded)

	// The failed batch is still pending and gets retried on the next run.
	retry, err := svc.ProcessPending(context.Background(), fastOpts(10))
	require.NoError(t, err)
	require.Equal(t, 10, retry.Selected)
	require.Equal(t, 10, retry.Embedded)
	require.Len(t, store.saved, 20)
}

func TestProcessPending_SkipsBooksWithoutText(t *testing.T) {
	store := newFakeEmbeddingStore(
		model.Book{ID: 1, Title: "  "},
		model.Book{ID: 2, Title: "Real"},
	)
	embedder := &fakeEmbedder{vector: []float32{1}}
	svc := NewEmbeddingService(embedder, store)

	report, err := svc.ProcessPending(context.Background(), fastOpts(10))
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Embedded)
	require.Len(t, embedder.batches, 1)
	require.Equal(t, []string{"Real"}, embedder.batches[0])
}

func TestProcessPending_Cancellation(t *testing.T) {
	var pending []model.Book
	for i := int64(1); i <= 30; i++ {
		pending = append(pending, model.Book{ID: i, Title: "Book"})
	}
	store := newFakeEmbeddingStore(pending...)
	embedder := &fakeEmbedder{vector: []float32{1}}
	svc := NewEmbeddingService(embedder, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := EmbedOptions{BatchSize: 10, Delay: time.Hour, Backoff: time.Hour}
	report, err := svc.ProcessPending(ctx, opts)
	require.ErrorIs(t, err, context.Canceled)
	// The first batch completed before the inter-batch pause noticed the
	// cancelled context.
	require.Equal(t, 10, report.Embedded)
}

func TestBuildEmbeddingText(t *testing.T) {
	tests := []struct {
		name string
		book model.Book
		want string
	}{
		{
			name: "all fields",
			book: model.Book{Title: "Dune", Authors: "Frank Herbert", Genre: "Ciencia Ficción", Publisher: "Chilton"},
			want: "Dune. Autor: Frank Herbert. Género: Ciencia Ficción. Editorial: Chilton",
		},
		{
			name: "empty fields skipped",
			book: model.Book{Title: "Dune", Genre: "Ciencia Ficción"},
			want: "Dune. Género: Ciencia Ficción",
		},
		{
			name: "title only",
			book: model.Book{Title: "Dune"},
			want: "Dune",
		},
		{
			name: "nothing",
			book: model.Book{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, buildEmbeddingText(tt.book))
		})
	}
}
