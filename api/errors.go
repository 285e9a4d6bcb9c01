package api

import (
	"errors"
	"net/http"

	"fintrack/config"
	"fintrack/ledger"
	"fintrack/logger"

	"github.com/gin-gonic/gin"
)

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// StatusOf 账本错误类别对应的 HTTP 状态码
func StatusOf(err error) int {
	switch ledger.KindOf(err) {
	case ledger.ErrUnauthorized:
		return http.StatusUnauthorized
	case ledger.ErrNotFound:
		return http.StatusNotFound
	case ledger.ErrValidation:
		return http.StatusBadRequest
	case ledger.ErrConflict:
		return http.StatusConflict
	case ledger.ErrTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError 按错误类别输出响应
// 已归类的错误直接返回其提示信息，未归类的按 500 处理并隐藏细节
func RespondError(c *gin.Context, err error, fallback string) {
	status := StatusOf(err)
	var le *ledger.Error
	if status != http.StatusInternalServerError && errors.As(err, &le) {
		if status == http.StatusServiceUnavailable {
			c.Header("Retry-After", "5")
		}
		Error(c, status, le.Message)
		return
	}

	logger.FromContext(c.Request.Context()).Error(fallback, logger.FieldError, err)
	_ = c.Error(err)
	InternalError(c, SafeErrorMessage(err, fallback))
}
