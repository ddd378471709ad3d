package middleware

import (
	"net/textproto"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/logger"
)

var HeaderTraceID = textproto.CanonicalMIMEHeaderKey("X-Trace-ID")

// RequestLogger 设置请求日志
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 请求头X-Trace-ID为空时自动生成
		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.NewV4().String()
			c.Request.Header.Set(HeaderTraceID, traceID)
		}
		c.Writer.Header().Set(HeaderTraceID, traceID)
		l := log.With(zap.String("trace_id", traceID), zap.String("client_ip", c.ClientIP()))
		c.Request = c.Request.WithContext(logger.With(c.Request.Context(), l))
		c.Next()
	}
}
