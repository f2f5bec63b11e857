// Package response 统一响应格式 {success, message, data}
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/pkg/apperr"
	"github.com/d60-Lab/pinboard/pkg/logger"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func JSON(c *gin.Context, status int, success bool, message string, data any) {
	c.JSON(status, Response{Success: success, Message: message, Data: data})
}

func Success(c *gin.Context, data any) {
	JSON(c, http.StatusOK, true, "ok", data)
}

func SuccessMsg(c *gin.Context, message string, data any) {
	JSON(c, http.StatusOK, true, message, data)
}

func Created(c *gin.Context, message string, data any) {
	JSON(c, http.StatusCreated, true, message, data)
}

func BadRequest(c *gin.Context, message string) {
	JSON(c, http.StatusBadRequest, false, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	JSON(c, http.StatusUnauthorized, false, message, nil)
}

func TooManyRequests(c *gin.Context) {
	JSON(c, http.StatusTooManyRequests, false, "too many requests", nil)
}

func InternalError(c *gin.Context, err error) {
	logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	JSON(c, http.StatusInternalServerError, false, "internal server error", nil)
}

// Error 按错误类别映射 HTTP 状态码
func Error(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		JSON(c, http.StatusNotFound, false, apperr.Message(err), nil)
	case apperr.KindForbidden:
		JSON(c, http.StatusForbidden, false, apperr.Message(err), nil)
	case apperr.KindConflict:
		JSON(c, http.StatusConflict, false, apperr.Message(err), nil)
	case apperr.KindInvalidInput:
		JSON(c, http.StatusBadRequest, false, apperr.Message(err), nil)
	case apperr.KindStoreFailure:
		logger.Error("store failure", zap.String("path", c.FullPath()), zap.Error(err))
		JSON(c, http.StatusInternalServerError, false, apperr.Message(err), nil)
	default:
		InternalError(c, err)
	}
}
