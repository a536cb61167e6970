package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acentos/bookstore/internal/pkg/errcode"
	"github.com/acentos/bookstore/internal/pkg/response"
	"github.com/acentos/bookstore/internal/service"
)

type FavoriteHandler struct {
	favorites *service.FavoriteService
}

func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	if err := h.favorites.Add(c.Request.Context(), getUserID(c), bookID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"book_id": bookID})
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), getUserID(c), bookID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"book_id": bookID})
}

func (h *FavoriteHandler) List(c *gin.Context) {
	books, err := h.favorites.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": books})
}

func bookIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, errcode.ErrInvalid, "invalid book id")
		return 0, false
	}
	return id, true
}
