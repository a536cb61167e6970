package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/acentos/bookstore/internal/model"
	"github.com/acentos/bookstore/internal/pkg/dbutil"
)

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

// Put sets the quantity for one cart row, inserting it when absent.
func (r *CartRepo) Put(ctx context.Context, userID string, bookID int64, quantity int) error {
	const query = `
		INSERT INTO cart_items (user_id, book_id, quantity, mtime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query, userID, bookID, quantity, time.Now().UnixMilli())
	return err
}

// Increment adds delta to an existing row or creates it with the delta.
func (r *CartRepo) Increment(ctx context.Context, userID string, bookID int64, delta int) error {
	const query = `
		INSERT INTO cart_items (user_id, book_id, quantity, mtime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query, userID, bookID, delta, time.Now().UnixMilli())
	return err
}

func (r *CartRepo) Remove(ctx context.Context, userID string, bookID int64) (bool, error) {
	where := map[string]interface{}{
		"user_id": userID,
		"book_id": bookID,
	}
	sqlStr, args, err := builder.BuildDelete("cart_items", where)
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

func (r *CartRepo) ListByUser(ctx context.Context, userID string) ([]model.CartItem, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "mtime desc",
	}
	sqlStr, args, err := builder.BuildSelect("cart_items", where, []string{"user_id", "book_id", "quantity", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.UserID, &item.BookID, &item.Quantity, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	const query = `DELETE FROM cart_items WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
