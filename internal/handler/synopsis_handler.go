package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/acentos/bookstore/internal/ai"
	"github.com/acentos/bookstore/internal/pkg/errcode"
	"github.com/acentos/bookstore/internal/pkg/response"
	"github.com/acentos/bookstore/internal/service"
)

type SynopsisHandler struct {
	synopsis *service.SynopsisService
}

func NewSynopsisHandler(synopsis *service.SynopsisService) *SynopsisHandler {
	return &SynopsisHandler{synopsis: synopsis}
}

type synopsisRequest struct {
	Title string `json:"title" form:"title"`
}

func (h *SynopsisHandler) Generate(c *gin.Context) {
	var req synopsisRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "title required")
		return
	}
	result, err := h.synopsis.ForTitle(c.Request.Context(), req.Title)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
