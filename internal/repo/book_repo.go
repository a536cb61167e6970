package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/acentos/bookstore/internal/model"
	"github.com/acentos/bookstore/internal/pkg/dbutil"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
)

const bookColumns = `id, isbn, title, authors, genre, publisher, publication_year,
	image_url, description, average_rating, ratings_count, price, ctime, mtime`

type BookRepo struct {
	db *sql.DB
}

func NewBookRepo(db *sql.DB) *BookRepo {
	return &BookRepo{db: db}
}

type BookFilter struct {
	Genres  []string
	Authors []string
	Limit   int
	Offset  int
}

func (r *BookRepo) Create(ctx context.Context, book *model.Book) (int64, error) {
	const query = `
		INSERT INTO books (isbn, title, authors, genre, publisher, publication_year,
			image_url, description, average_rating, ratings_count, price, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	now := time.Now().UnixMilli()
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		book.ISBN, book.Title, book.Authors, book.Genre, book.Publisher, book.PublicationYear,
		book.ImageURL, book.Description, book.AverageRating, book.RatingsCount, book.Price,
		now, now,
	).Scan(&id)
	if err != nil {
		if dbutil.IsConflict(err) {
			return 0, appErr.ErrConflict
		}
		return 0, err
	}
	return id, nil
}

// Upsert inserts a book or refreshes an existing one matched by title,
// filling book.ID either way. An update clears nothing: the embedding
// column is left untouched so a re-import does not force regeneration
// of unchanged vectors.
func (r *BookRepo) Upsert(ctx context.Context, book *model.Book) (bool, error) {
	const query = `
		INSERT INTO books (isbn, title, authors, genre, publisher, publication_year,
			image_url, description, average_rating, ratings_count, price, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (title) DO UPDATE SET
			isbn = EXCLUDED.isbn,
			authors = EXCLUDED.authors,
			genre = EXCLUDED.genre,
			publisher = EXCLUDED.publisher,
			publication_year = EXCLUDED.publication_year,
			image_url = EXCLUDED.image_url,
			description = EXCLUDED.description,
			average_rating = EXCLUDED.average_rating,
			ratings_count = EXCLUDED.ratings_count,
			price = EXCLUDED.price,
			mtime = EXCLUDED.mtime
		RETURNING id, (xmax = 0)
	`
	now := time.Now().UnixMilli()
	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		book.ISBN, book.Title, book.Authors, book.Genre, book.Publisher, book.PublicationYear,
		book.ImageURL, book.Description, book.AverageRating, book.RatingsCount, book.Price,
		now, now,
	).Scan(&book.ID, &inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *BookRepo) Get(ctx context.Context, id int64) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (r *BookRepo) List(ctx context.Context, filter BookFilter) ([]model.Book, error) {
	where := map[string]interface{}{
		"_orderby": "title",
	}
	if len(filter.Genres) > 0 {
		where["genre in"] = filter.Genres
	}
	if len(filter.Authors) > 0 {
		where["authors in"] = filter.Authors
	}
	if filter.Limit > 0 {
		where["_limit"] = []uint{uint(filter.Offset), uint(filter.Limit)}
	}
	sqlStr, args, err := builder.BuildSelect("books", where, bookColumnList())
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.queryBooks(ctx, sqlStr, args...)
}

func (r *BookRepo) Count(ctx context.Context, filter BookFilter) (int64, error) {
	where := map[string]interface{}{}
	if len(filter.Genres) > 0 {
		where["genre in"] = filter.Genres
	}
	if len(filter.Authors) > 0 {
		where["authors in"] = filter.Authors
	}
	sqlStr, args, err := builder.BuildSelect("books", where, []string{"count(1)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var total int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Search matches the query against title, authors and genre.
func (r *BookRepo) Search(ctx context.Context, query string, limit, offset int) ([]model.Book, error) {
	sqlStr := `SELECT ` + bookColumns + ` FROM books
		WHERE title ILIKE $1 OR authors ILIKE $1 OR genre ILIKE $1
		ORDER BY title LIMIT $2 OFFSET $3`
	pattern := "%" + query + "%"
	return r.queryBooks(ctx, sqlStr, pattern, limit, offset)
}

func (r *BookRepo) SearchCount(ctx context.Context, query string) (int64, error) {
	const sqlStr = `SELECT count(1) FROM books WHERE title ILIKE $1 OR authors ILIKE $1 OR genre ILIKE $1`
	var total int64
	if err := r.db.QueryRowContext(ctx, sqlStr, "%"+query+"%").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *BookRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + bookColumns + ` FROM books WHERE id IN (?)`
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	return r.queryBooks(ctx, query, args...)
}

func (r *BookRepo) DistinctGenres(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT genre FROM books WHERE genre <> '' ORDER BY genre`
	return r.queryStrings(ctx, query)
}

func (r *BookRepo) DistinctAuthors(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT authors FROM books WHERE authors <> '' ORDER BY authors`
	return r.queryStrings(ctx, query)
}

func (r *BookRepo) CountByGenre(ctx context.Context, limit int) (map[string]int64, error) {
	query := `SELECT genre, count(1) FROM books WHERE genre <> '' GROUP BY genre ORDER BY count(1) DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	return r.queryCounts(ctx, query, args...)
}

func (r *BookRepo) CountByYear(ctx context.Context) (map[string]int64, error) {
	const query = `SELECT publication_year::text, count(1) FROM books GROUP BY publication_year ORDER BY publication_year`
	return r.queryCounts(ctx, query)
}

// ListMissingEmbeddings returns books without a vector, oldest first, with
// just the descriptive fields the embedding text is built from. A limit of
// zero or less returns every pending book.
func (r *BookRepo) ListMissingEmbeddings(ctx context.Context, limit int) ([]model.Book, error) {
	query := `
		SELECT id, title, authors, genre, publisher
		FROM books
		WHERE embedding IS NULL
		ORDER BY id
	`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Authors, &b.Genre, &b.Publisher); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *BookRepo) CountMissingEmbeddings(ctx context.Context) (int64, error) {
	const query = `SELECT count(1) FROM books WHERE embedding IS NULL`
	var total int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *BookRepo) UpdateEmbedding(ctx context.Context, id int64, embedding []float32, modelName string) error {
	const query = `UPDATE books SET embedding = $1, embedding_model = $2, mtime = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), modelName, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// ListEmbedded returns ranking candidates. Only vectors generated by the
// given model are returned; vectors left over from older models never reach
// a similarity comparison.
func (r *BookRepo) ListEmbedded(ctx context.Context, modelName string) ([]model.BookVector, error) {
	const query = `SELECT id, embedding FROM books WHERE embedding IS NOT NULL AND embedding_model = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, modelName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vectors []model.BookVector
	for rows.Next() {
		var item model.BookVector
		var vec pgvector.Vector
		if err := rows.Scan(&item.BookID, &vec); err != nil {
			return nil, err
		}
		item.Embedding = vec.Slice()
		vectors = append(vectors, item)
	}
	return vectors, rows.Err()
}

func (r *BookRepo) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE books RESTART IDENTITY CASCADE`)
	return err
}

func (r *BookRepo) queryBooks(ctx context.Context, query string, args ...interface{}) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var books []model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

func (r *BookRepo) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *BookRepo) queryCounts(ctx context.Context, query string, args ...interface{}) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var total int64
		if err := rows.Scan(&key, &total); err != nil {
			return nil, err
		}
		counts[key] = total
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (*model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.ISBN, &b.Title, &b.Authors, &b.Genre, &b.Publisher, &b.PublicationYear,
		&b.ImageURL, &b.Description, &b.AverageRating, &b.RatingsCount, &b.Price,
		&b.Ctime, &b.Mtime,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func bookColumnList() []string {
	return []string{
		"id", "isbn", "title", "authors", "genre", "publisher", "publication_year",
		"image_url", "description", "average_rating", "ratings_count", "price", "ctime", "mtime",
	}
}
