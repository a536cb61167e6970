package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/acentos/bookstore/internal/model"
	"github.com/acentos/bookstore/internal/pkg/dbutil"
)

type FavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

func (r *FavoriteRepo) Add(ctx context.Context, userID string, bookID int64) error {
	const query = `
		INSERT INTO favorites (user_id, book_id, ctime)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, book_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, userID, bookID, time.Now().UnixMilli())
	return err
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID string, bookID int64) (bool, error) {
	where := map[string]interface{}{
		"user_id": userID,
		"book_id": bookID,
	}
	sqlStr, args, err := builder.BuildDelete("favorites", where)
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *FavoriteRepo) ListByUser(ctx context.Context, userID string) ([]model.Favorite, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("favorites", where, []string{"user_id", "book_id", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var favorites []model.Favorite
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.UserID, &f.BookID, &f.Ctime); err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

func (r *FavoriteRepo) Exists(ctx context.Context, userID string, bookID int64) (bool, error) {
	const query = `SELECT 1 FROM favorites WHERE user_id = $1 AND book_id = $2`
	var one int
	err := r.db.QueryRowContext(ctx, query, userID, bookID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
