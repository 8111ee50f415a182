// Package response writes the JSON envelope every endpoint returns:
// {"success": bool, "data"?: any, "message"?: string, "error"?: string}.
package response

import (
	"github.com/gin-gonic/gin"
)

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// SuccessMessage is Success with a human-readable message alongside the data.
func SuccessMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// Error answers with message in both message and error, which is what clients show.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message, Error: message})
}

// ErrorDetail keeps the human-readable message apart from a raw detail such as an upstream body.
func ErrorDetail(c *gin.Context, status int, message, detail string) {
	c.JSON(status, Envelope{Success: false, Message: message, Error: detail})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Error: message})
}
