package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookqa/internal/model"
	"github.com/xxxsen/bookqa/internal/pkg/errcode"
	"github.com/xxxsen/bookqa/internal/pkg/response"
)

// ChatService answers reader questions against the indexed course content.
type ChatService interface {
	ProcessQuestion(ctx context.Context, q model.UserQuestion) (*model.ChatResponse, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.UserQuestion
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		response.Error(c, errcode.ErrInvalid, "question required")
		return
	}
	resp, err := h.chat.ProcessQuestion(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}
