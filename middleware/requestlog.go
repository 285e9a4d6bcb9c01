package middleware

import (
	"time"

	"fintrack/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// RequestLogger 为每个请求分配请求 ID，把带请求 ID 的日志器放进 context，并在结束时记录访问日志
func RequestLogger(base *logger.Logger) gin.HandlerFunc {
	base = base.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		reqLog := base.With(logger.FieldRequestID, requestID)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), reqLog))

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			logger.FieldMethod, c.Request.Method,
			logger.FieldPath, c.FullPath(),
			logger.FieldStatus, status,
			logger.FieldLatency, time.Since(start).Milliseconds(),
			logger.FieldClientIP, c.ClientIP(),
		}
		if uid := GetCurrentUserID(c); uid != 0 {
			attrs = append(attrs, logger.FieldUserID, uid)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, logger.FieldError, c.Errors.String())
		}

		switch {
		case status >= 500:
			reqLog.Error("请求失败", attrs...)
		case status >= 400:
			reqLog.Warn("请求异常", attrs...)
		default:
			reqLog.Info("请求完成", attrs...)
		}
	}
}
