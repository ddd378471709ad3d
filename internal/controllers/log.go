package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/resp"
)

type logSwitch struct {
	Debug *bool `json:"debug" binding:"required"`
}

// GetLog 查询调试日志开关
func GetLog(c *gin.Context) {
	resp.Success(c, gin.H{"debug": logger.Debug()})
}

// SetLog 打开或关闭调试日志
func SetLog(c *gin.Context) {
	var req logSwitch
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ErrorParam(c, err)
		return
	}
	logger.SetDebug(*req.Debug)
	c.Status(http.StatusNoContent)
}
