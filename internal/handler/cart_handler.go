package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acentos/bookstore/internal/pkg/errcode"
	"github.com/acentos/bookstore/internal/pkg/response"
	"github.com/acentos/bookstore/internal/service"
)

type CartHandler struct {
	cart *service.CartService
}

func NewCartHandler(cart *service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type cartItemRequest struct {
	BookID   int64 `json:"book_id" form:"book_id"`
	Quantity int   `json:"quantity" form:"quantity"`
}

func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.cart.Get(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBind(&req); err != nil || req.BookID <= 0 {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.cart.Add(c.Request.Context(), getUserID(c), req.BookID, req.Quantity); err != nil {
		handleError(c, err)
		return
	}
	h.Get(c)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	var req cartItemRequest
	if err := c.ShouldBind(&req); err != nil || req.Quantity < 0 {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.cart.SetQuantity(c.Request.Context(), getUserID(c), bookID, req.Quantity); err != nil {
		handleError(c, err)
		return
	}
	h.Get(c)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	if err := h.cart.Remove(c.Request.Context(), getUserID(c), bookID); err != nil {
		handleError(c, err)
		return
	}
	h.Get(c)
}

func (h *CartHandler) Checkout(c *gin.Context) {
	order, err := h.cart.Checkout(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, order)
}

func (h *CartHandler) ListOrders(c *gin.Context) {
	orders, err := h.cart.ListOrders(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": orders})
}

func (h *CartHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		response.Error(c, errcode.ErrInvalid, "invalid order id")
		return
	}
	order, err := h.cart.GetOrder(c.Request.Context(), getUserID(c), orderID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, order)
}
