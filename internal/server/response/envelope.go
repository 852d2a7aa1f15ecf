// Package response writes the JSON envelope shared by every API route.
package response

import "github.com/gin-gonic/gin"

// Business status codes carried in Envelope.BusinessStatusCode.
const (
	CodeSuccess              = 1000
	CodeInvalidInput         = 1001
	CodeUserBlocked          = 1002
	CodeUserNotFound         = 1003
	CodeInvalidCredentials   = 1004
	CodeServiceUnavailable   = 1005
	CodeAlreadyAuthenticated = 1006
	CodeUnauthenticated      = 1007
	CodeRateLimited          = 1008
	CodeInternal             = 1009
)

// Envelope is the body of every API response.
type Envelope struct {
	Message            string `json:"message"`
	Data               any    `json:"data"`
	IsException        bool   `json:"is_exception"`
	BusinessStatusCode int    `json:"business_status_code"`
}

// OK writes a success envelope.
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Message: message, Data: data, BusinessStatusCode: CodeSuccess})
}

// Fail writes an exception envelope with no data.
func Fail(c *gin.Context, status, code int, message string) {
	c.JSON(status, Envelope{Message: message, IsException: true, BusinessStatusCode: code})
}

// Abort writes an exception envelope and stops the handler chain.
func Abort(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Message: message, IsException: true, BusinessStatusCode: code})
}
