// Package response renders the registration API envelope. Every outcome,
// success or failure, uses the same shape so clients parse one format.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Success      bool        `json:"success"`
	RequestID    string      `json:"requestId"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	Data         interface{} `json:"data"`
}

// OK sends a 200 envelope with data.
func OK(c *gin.Context, requestID string, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, RequestID: requestID, Data: data})
}

// BadRequest sends a 400 envelope with an error message and empty data.
func BadRequest(c *gin.Context, requestID, msg string) {
	fail(c, http.StatusBadRequest, requestID, msg)
}

// Internal sends a 500 envelope. Callers pass a generic message; internal
// detail stays in the server logs.
func Internal(c *gin.Context, requestID, msg string) {
	fail(c, http.StatusInternalServerError, requestID, msg)
}

func fail(c *gin.Context, status int, requestID, msg string) {
	c.JSON(status, Body{Success: false, RequestID: requestID, ErrorMessage: msg, Data: struct{}{}})
}
