package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookqa/internal/model"
	"github.com/xxxsen/bookqa/internal/pkg/errcode"
	"github.com/xxxsen/bookqa/internal/pkg/response"
)

// SearchService exposes raw ranked retrieval without answer generation.
type SearchService interface {
	SearchContent(ctx context.Context, q model.SearchQuery) ([]model.SearchResult, error)
}

type SearchHandler struct {
	search SearchService
}

func NewSearchHandler(search SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	results, err := h.search.SearchContent(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results, "total": len(results)})
}
