package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookqa/internal/middleware"
)

type RouterDeps struct {
	Chat          *ChatHandler
	Search        *SearchHandler
	Admin         *AdminHandler
	Info          *InfoHandler
	RateLimitSpan time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/", deps.Info.Root)
	api.GET("/health", deps.Info.Health)

	queryGroup := api.Group("")
	if deps.RateLimitSpan > 0 {
		queryGroup.Use(middleware.RateLimit(deps.RateLimitSpan))
	}
	queryGroup.POST("/chat", deps.Chat.Chat)
	queryGroup.POST("/search", deps.Search.Search)

	api.POST("/admin/reindex", deps.Admin.Reindex)
}
