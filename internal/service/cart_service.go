package service

import (
	"context"
	"math"

	"github.com/acentos/bookstore/internal/model"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
	"github.com/acentos/bookstore/internal/repo"
)

type CartService struct {
	cart   *repo.CartRepo
	orders *repo.OrderRepo
	books  *repo.BookRepo
}

func NewCartService(cart *repo.CartRepo, orders *repo.OrderRepo, books *repo.BookRepo) *CartService {
	return &CartService{cart: cart, orders: orders, books: books}
}

type Cart struct {
	Items []model.CartLine `json:"items"`
	Total float64          `json:"total"`
}

func (s *CartService) Add(ctx context.Context, userID string, bookID int64, quantity int) error {
	if userID == "" || bookID <= 0 {
		return appErr.ErrInvalid
	}
	if quantity <= 0 {
		quantity = 1
	}
	if _, err := s.books.Get(ctx, bookID); err != nil {
		return err
	}
	return s.cart.Increment(ctx, userID, bookID, quantity)
}

// SetQuantity overwrites the row quantity; zero removes the row.
func (s *CartService) SetQuantity(ctx context.Context, userID string, bookID int64, quantity int) error {
	if userID == "" || bookID <= 0 || quantity < 0 {
		return appErr.ErrInvalid
	}
	if quantity == 0 {
		return s.Remove(ctx, userID, bookID)
	}
	if _, err := s.books.Get(ctx, bookID); err != nil {
		return err
	}
	return s.cart.Put(ctx, userID, bookID, quantity)
}

func (s *CartService) Remove(ctx context.Context, userID string, bookID int64) error {
	if userID == "" || bookID <= 0 {
		return appErr.ErrInvalid
	}
	removed, err := s.cart.Remove(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if !removed {
		return appErr.ErrNotFound
	}
	return nil
}

func (s *CartService) Get(ctx context.Context, userID string) (*Cart, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	lines, err := s.loadLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart := &Cart{Items: lines}
	for _, line := range lines {
		cart.Total += line.Subtotal
	}
	cart.Total = roundPrice(cart.Total)
	return cart, nil
}

// Checkout snapshots the cart into a pending order and empties the cart.
// Payment happens elsewhere; the order never advances past pending here.
func (s *CartService) Checkout(ctx context.Context, userID string) (*model.Order, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	lines, err := s.loadLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, appErr.ErrInvalid
	}
	order := &model.Order{
		UserID: userID,
		Status: model.OrderStatusPending,
	}
	for _, line := range lines {
		order.Items = append(order.Items, model.OrderItem{
			BookID:   line.Book.ID,
			Title:    line.Book.Title,
			Price:    line.Book.Price,
			Quantity: line.Quantity,
		})
		order.Total += line.Subtotal
	}
	order.Total = roundPrice(order.Total)
	orderID, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := s.cart.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, userID, orderID)
}

func (s *CartService) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	return s.orders.ListByUser(ctx, userID)
}

func (s *CartService) GetOrder(ctx context.Context, userID string, orderID int64) (*model.Order, error) {
	if userID == "" || orderID <= 0 {
		return nil, appErr.ErrInvalid
	}
	return s.orders.Get(ctx, userID, orderID)
}

// loadLines joins cart rows with their books. Rows whose book disappeared
// from the catalog are skipped rather than failing the whole cart.
func (s *CartService) loadLines(ctx context.Context, userID string) ([]model.CartLine, error) {
	items, err := s.cart.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.BookID)
	}
	books, err := s.books.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	lines := make([]model.CartLine, 0, len(items))
	for _, item := range items {
		book, ok := byID[item.BookID]
		if !ok {
			continue
		}
		lines = append(lines, model.CartLine{
			Book:     book,
			Quantity: item.Quantity,
			Subtotal: roundPrice(book.Price * float64(item.Quantity)),
		})
	}
	return lines, nil
}

func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}
