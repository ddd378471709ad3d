package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crochee/jobflow/pkg/code"
	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/resp"
)

// Recovery panic log
func Recovery(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			var brokenPipe bool
			if ne, ok := r.(*net.OpError); ok {
				var se *os.SyscallError
				if errors.As(ne.Err, &se) {
					msg := strings.ToLower(se.Error())
					brokenPipe = strings.Contains(msg, "broken pipe") ||
						strings.Contains(msg, "connection reset by peer")
				}
			}
			ctx := c.Request.Context()
			httpRequest, err := httputil.DumpRequest(c.Request, false)
			if err != nil {
				logger.From(ctx).Error(err.Error())
			}
			headers := strings.Split(string(httpRequest), "\r\n")
			for idx, header := range headers {
				current := strings.Split(header, ":")
				if current[0] == "Authorization" { // 数据脱敏
					headers[idx] = current[0] + ": *"
				}
			}
			logger.From(ctx).Sugar().Errorf("[Recovery] %s\n%v\n%s",
				strings.Join(headers, "\r\n"), r, debug.Stack())
			extra := fmt.Sprint(r)
			if brokenPipe {
				extra = fmt.Sprintf("broken pipe or connection reset by peer;%v", r)
			}
			resp.Error(c, code.ErrInternalServerError.WithResult(extra))
		}
	}()
	c.Next()
}
