package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acentos/bookstore/internal/middleware"
)

type RouterDeps struct {
	Books       *BookHandler
	Recommend   *RecommendHandler
	Synopsis    *SynopsisHandler
	Favorites   *FavoriteHandler
	Cart        *CartHandler
	Covers      *CoverHandler
	JWTSecret   []byte
	AIRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/books", deps.Books.List)
	api.GET("/books/search", deps.Books.Search)
	api.GET("/books/filter-options", deps.Books.FilterOptions)
	api.GET("/books/statistics", deps.Books.Statistics)
	api.GET("/books/:id", deps.Books.Get)

	aiGroup := api.Group("")
	aiGroup.Use(middleware.RateLimit(deps.AIRateLimit))
	aiGroup.POST("/recommendations", deps.Recommend.Recommend)
	aiGroup.POST("/books/synopsis", deps.Synopsis.Generate)

	api.GET("/covers/:key", deps.Covers.Get)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/favorites", deps.Favorites.List)
	authGroup.POST("/favorites/:book_id", deps.Favorites.Add)
	authGroup.DELETE("/favorites/:book_id", deps.Favorites.Remove)

	authGroup.GET("/cart", deps.Cart.Get)
	authGroup.POST("/cart/items", deps.Cart.AddItem)
	authGroup.PUT("/cart/items/:book_id", deps.Cart.UpdateItem)
	authGroup.DELETE("/cart/items/:book_id", deps.Cart.RemoveItem)
	authGroup.POST("/cart/checkout", deps.Cart.Checkout)
	authGroup.GET("/orders", deps.Cart.ListOrders)
	authGroup.GET("/orders/:id", deps.Cart.GetOrder)

	authGroup.POST("/covers/upload", deps.Covers.Upload)
}
