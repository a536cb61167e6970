package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/acentos/bookstore/internal/ai"
	"github.com/acentos/bookstore/internal/pkg/errcode"
	appErr "github.com/acentos/bookstore/internal/pkg/errors"
	"github.com/acentos/bookstore/internal/pkg/response"
	"github.com/acentos/bookstore/internal/service"
)

type RecommendHandler struct {
	recommender *service.RecommendService
}

func NewRecommendHandler(recommender *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{recommender: recommender}
}

type recommendRequest struct {
	Prompt string `json:"prompt" form:"prompt"`
}

// Recommend accepts the prompt as JSON or a form field, so both the fetch
// frontend and a plain HTML form can post to it.
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "please enter a prompt")
		return
	}
	result, err := h.recommender.Recommend(c.Request.Context(), req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, appErr.ErrInvalid):
			response.Error(c, errcode.ErrInvalid, "please enter a prompt")
		case errors.Is(err, appErr.ErrNoResults):
			response.Error(c, errcode.ErrNoResults, "no results: no books have embeddings yet")
		case errors.Is(err, ai.ErrUnavailable):
			response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
		default:
			// Provider details stay in the log; the user gets a generic line.
			handleError(c, err)
		}
		return
	}
	response.Success(c, result)
}
