package model

type CartItem struct {
	UserID   string `json:"user_id"`
	BookID   int64  `json:"book_id"`
	Quantity int    `json:"quantity"`
	Mtime    int64  `json:"mtime"`
}

// CartLine is a cart item joined with its book for display and checkout.
type CartLine struct {
	Book     Book    `json:"book"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}
