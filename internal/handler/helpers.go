package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookqa/internal/pkg/errcode"
	appErr "github.com/xxxsen/bookqa/internal/pkg/errors"
	"github.com/xxxsen/bookqa/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case appErr.IsBackend(err):
		response.ErrorWithStatus(c, http.StatusServiceUnavailable, errcode.ErrBackendUnavailable, "content backend unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
