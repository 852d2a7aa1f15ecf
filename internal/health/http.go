package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves readiness: 200 when every check passes, otherwise 503.
func Handler(c *Checker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rep := c.Check(ctx.Request.Context())
		status := http.StatusOK
		if !rep.Healthy {
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, rep)
	}
}
