package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes data as json, or 204 when there is nothing to return
func Success(c *gin.Context, data ...interface{}) {
	if len(data) == 0 || data[0] == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, data[0])
}
