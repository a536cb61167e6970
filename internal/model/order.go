package model

const (
	// Orders stay pending: payment is handled outside this system.
	OrderStatusPending = "pending"
)

type Order struct {
	ID     int64       `json:"id"`
	UserID string      `json:"user_id"`
	Total  float64     `json:"total"`
	Status string      `json:"status"`
	Ctime  int64       `json:"ctime"`
	Items  []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots title and price at checkout time so later catalog
// edits do not rewrite order history.
type OrderItem struct {
	OrderID  int64   `json:"order_id"`
	BookID   int64   `json:"book_id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
