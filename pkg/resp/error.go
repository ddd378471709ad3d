package resp

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/code"
	"github.com/crochee/jobflow/pkg/logger"
)

// Error gin Response with error
func Error(c *gin.Context, err error) {
	logger.From(c.Request.Context()).Error("response failed", zap.Error(err))
	var e code.ErrorCode
	if !errors.As(err, &e) {
		e = code.ErrCodeUnknown.WithResult(err.Error())
	}
	c.AbortWithStatusJSON(e.StatusCode(), e)
}

// ErrorParam gin response with invalid parameter tip
func ErrorParam(c *gin.Context, err error) {
	Error(c, code.ErrInvalidParam.WithResult(err.Error()))
}
