package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/acentos/bookstore/internal/model"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create inserts the order and its line items in one transaction.
func (r *OrderRepo) Create(ctx context.Context, order *model.Order) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const orderQuery = `
		INSERT INTO orders (user_id, total, status, ctime)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var orderID int64
	if err := tx.QueryRowContext(ctx, orderQuery,
		order.UserID, order.Total, order.Status, time.Now().UnixMilli(),
	).Scan(&orderID); err != nil {
		return 0, err
	}

	const itemQuery = `
		INSERT INTO order_items (order_id, book_id, title, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery, orderID, item.BookID, item.Title, item.Price, item.Quantity); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return orderID, nil
}

func (r *OrderRepo) Get(ctx context.Context, userID string, orderID int64) (*model.Order, error) {
	const query = `SELECT id, user_id, total, status, ctime FROM orders WHERE id = $1 AND user_id = $2`
	var order model.Order
	err := r.db.QueryRowContext(ctx, query, orderID, userID).Scan(
		&order.ID, &order.UserID, &order.Total, &order.Status, &order.Ctime,
	)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.listItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	const query = `SELECT id, user_id, total, status, ctime FROM orders WHERE user_id = $1 ORDER BY ctime DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []model.Order
	for rows.Next() {
		var order model.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.Ctime); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepo) listItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	const query = `SELECT order_id, book_id, title, price, quantity FROM order_items WHERE order_id = $1 ORDER BY book_id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.OrderID, &item.BookID, &item.Title, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
