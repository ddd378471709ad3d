package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/logger"
)

// Log request log
func Log(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	if raw := c.Request.URL.RawQuery; raw != "" {
		path = path + "?" + raw
	}

	c.Next()

	param := gin.LogFormatterParams{
		Request:      c.Request,
		Keys:         c.Keys,
		TimeStamp:    time.Now(),
		ClientIP:     c.ClientIP(),
		Method:       c.Request.Method,
		StatusCode:   c.Writer.Status(),
		ErrorMessage: c.Errors.ByType(gin.ErrorTypePrivate).String(),
		BodySize:     c.Writer.Size(),
		Path:         path,
	}
	param.Latency = param.TimeStamp.Sub(start)
	logger.From(c.Request.Context()).Info(formatLog(&param), zap.Duration("latency", param.Latency))
}

func formatLog(param *gin.LogFormatterParams) string {
	if param.Latency > time.Minute {
		param.Latency -= param.Latency % time.Second
	}
	var buf strings.Builder
	buf.WriteString(strconv.Itoa(param.StatusCode))
	buf.WriteString(" | ")
	buf.WriteString(param.Latency.String())
	buf.WriteString(" | ")
	buf.WriteString(param.ClientIP)
	buf.WriteString(" | ")
	buf.WriteString(param.Method)
	buf.WriteString(" |")
	buf.WriteString(strconv.Itoa(param.BodySize))
	buf.WriteString("| ")
	buf.WriteString(param.Path)
	if param.ErrorMessage != "" {
		buf.WriteString(" | ")
		buf.WriteString(param.ErrorMessage)
	}
	return buf.String()
}
