// Package response 统一 HTTP 响应格式，并将业务错误映射为 HTTP 状态码
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// Body 响应体
type Body struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Details string   `json:"details,omitempty"`
}

// Success 返回 200
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Code: "ok", Message: "success", Data: data})
}

// Created 返回 201
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{Code: "ok", Message: "created", Data: data})
}

// ErrorWithStatus 返回指定状态码的错误
func ErrorWithStatus(c *gin.Context, status int, message, details string) {
	c.AbortWithStatusJSON(status, Body{Code: http.StatusText(status), Message: message, Details: details})
}

// Error 按业务错误类别映射状态码；未分类错误只返回通用信息
func Error(c *gin.Context, err error) {
	e, ok := xerrors.As(err)
	if !ok || e.Kind == xerrors.KindInternal || e.Kind == xerrors.KindTransport {
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Body{Code: string(xerrors.KindInternal), Message: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(StatusOf(e.Kind), Body{Code: string(e.Kind), Message: e.Message, Fields: e.Fields})
}

// StatusOf 业务错误类别对应的 HTTP 状态码
func StatusOf(kind xerrors.Kind) int {
	switch kind {
	case xerrors.KindValidation:
		return http.StatusBadRequest
	case xerrors.KindUnauthorized:
		return http.StatusUnauthorized
	case xerrors.KindForbidden:
		return http.StatusForbidden
	case xerrors.KindNotFound:
		return http.StatusNotFound
	case xerrors.KindInsufficientStock, xerrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
