package repo

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acentos/bookstore/internal/config"
	"github.com/acentos/bookstore/internal/db"
	"github.com/acentos/bookstore/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "acentos",
		Password: "acentos_pass",
		DBName:   "acentos_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func TestBookRepo_UpsertAndGet(t *testing.T) {
	conn := openTestDB(t)
	repo := NewBookRepo(conn)
	ctx := context.Background()
	require.NoError(t, repo.Truncate(ctx))

	book := &model.Book{
		Title:   "El Aleph",
		Authors: "Jorge Luis Borges",
		Genre:   "Clásicos",
		Price:   12.5,
	}
	created, err := repo.Upsert(ctx, book)
	require.NoError(t, err)
	require.True(t, created)
	require.NotZero(t, book.ID)

	firstID := book.ID
	book.Price = 14.0
	created, err = repo.Upsert(ctx, book)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, firstID, book.ID)

	got, err := repo.Get(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, "El Aleph", got.Title)
	require.InDelta(t, 14.0, got.Price, 0.001)
}

func TestBookRepo_EmbeddingLifecycle(t *testing.T) {
	conn := openTestDB(t)
	repo := NewBookRepo(conn)
	ctx := context.Background()
	require.NoError(t, repo.Truncate(ctx))

	book := &model.Book{Title: "Ficciones", Authors: "Jorge Luis Borges"}
	_, err := repo.Upsert(ctx, book)
	require.NoError(t, err)

	pending, err := repo.ListMissingEmbeddings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, book.ID, pending[0].ID)

	vector := make([]float32, 1536)
	vector[0] = 1
	require.NoError(t, repo.UpdateEmbedding(ctx, book.ID, vector, "test-model"))

	pending, err = repo.ListMissingEmbeddings(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, pending)

	// Upserting the same title again must not clear the stored vector.
	book.Price = 9.9
	_, err = repo.Upsert(ctx, book)
	require.NoError(t, err)
	pending, err = repo.ListMissingEmbeddings(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, pending)

	embedded, err := repo.ListEmbedded(ctx, "test-model")
	require.NoError(t, err)
	require.Len(t, embedded, 1)
	require.Equal(t, book.ID, embedded[0].BookID)
	require.Len(t, embedded[0].Embedding, 1536)

	// Vectors from another model are never ranking candidates.
	embedded, err = repo.ListEmbedded(ctx, "other-model")
	require.NoError(t, err)
	require.Empty(t, embedded)
}

func TestBookRepo_SearchAndFilters(t *testing.T) {
	conn := openTestDB(t)
	repo := NewBookRepo(conn)
	ctx := context.Background()
	require.NoError(t, repo.Truncate(ctx))

	books := []*model.Book{
		{Title: "Cien años de soledad", Authors: "Gabriel García Márquez", Genre: "Realismo Mágico"},
		{Title: "El amor en los tiempos del cólera", Authors: "Gabriel García Márquez", Genre: "Romance"},
		{Title: "Dune", Authors: "Frank Herbert", Genre: "Ciencia Ficción"},
	}
	for _, b := range books {
		_, err := repo.Upsert(ctx, b)
		require.NoError(t, err)
	}

	found, err := repo.Search(ctx, "garcía", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 2)

	total, err := repo.SearchCount(ctx, "garcía")
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	listed, err := repo.List(ctx, BookFilter{Genres: []string{"Ciencia Ficción"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "Dune", listed[0].Title)

	genres, err := repo.DistinctGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 3)
}
