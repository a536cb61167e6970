package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acentos/bookstore/internal/pkg/errcode"
	"github.com/acentos/bookstore/internal/pkg/response"
	"github.com/acentos/bookstore/internal/service"
)

type BookHandler struct {
	catalog *service.CatalogService
}

func NewBookHandler(catalog *service.CatalogService) *BookHandler {
	return &BookHandler{catalog: catalog}
}

// List serves the browsable catalog: repeated genre/author params narrow the
// page, q adds a text match on top.
func (h *BookHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	result, err := h.catalog.List(c.Request.Context(), service.ListParams{
		Genres:  c.QueryArray("genre"),
		Authors: c.QueryArray("author"),
		Query:   c.Query("q"),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *BookHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, errcode.ErrInvalid, "invalid book id")
		return
	}
	book, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, book)
}

func (h *BookHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	result, err := h.catalog.List(c.Request.Context(), service.ListParams{
		Query: query,
		Page:  page,
		Size:  size,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *BookHandler) FilterOptions(c *gin.Context) {
	options, err := h.catalog.FilterOptions(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, options)
}

func (h *BookHandler) Statistics(c *gin.Context) {
	stats, err := h.catalog.Statistics(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
