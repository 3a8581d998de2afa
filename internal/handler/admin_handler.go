package handler

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookqa/internal/pkg/errcode"
	"github.com/xxxsen/bookqa/internal/pkg/response"
)

// Reindexer rebuilds the vector index from the corpus source.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

type AdminHandler struct {
	indexer Reindexer
	token   string
}

func NewAdminHandler(indexer Reindexer, token string) *AdminHandler {
	return &AdminHandler{indexer: indexer, token: token}
}

func (h *AdminHandler) Reindex(c *gin.Context) {
	if !h.authorized(c) {
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
		return
	}
	indexed, err := h.indexer.Reindex(c.Request.Context())
	if err != nil {
		response.Error(c, errcode.ErrIndexFailed, "reindex failed")
		return
	}
	response.Success(c, gin.H{"indexed_chunks": indexed})
}

func (h *AdminHandler) authorized(c *gin.Context) bool {
	if h.token == "" {
		return false
	}
	auth := c.GetHeader("Authorization")
	bearer, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(bearer), []byte(h.token)) == 1
}
