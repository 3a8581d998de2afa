package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookqa/internal/pkg/response"
)

const serviceName = "bookqa"

type InfoHandler struct{}

func NewInfoHandler() *InfoHandler {
	return &InfoHandler{}
}

func (h *InfoHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "healthy", "service": serviceName})
}

func (h *InfoHandler) Root(c *gin.Context) {
	response.Success(c, gin.H{
		"service": serviceName,
		"endpoints": gin.H{
			"chat":    "POST /api/v1/chat",
			"search":  "POST /api/v1/search",
			"health":  "GET /api/v1/health",
			"reindex": "POST /api/v1/admin/reindex",
		},
	})
}
