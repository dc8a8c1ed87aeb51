package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/unirecords/university-api/pkg/errors"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Envelope is the response contract the front end consumes: successes carry
// "data" (or "message" for deletions), failures carry "error".
type Envelope struct {
	Status  string           `json:"status"`
	Data    interface{}      `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
	Error   *appErrors.Error `json:"error,omitempty"`
}

// JSON sends a success response wrapping the payload.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Status: statusSuccess, Data: data})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Message sends a success response with a message only, used by deletions.
func Message(c *gin.Context, message string) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(http.StatusOK, Envelope{Status: statusSuccess, Message: message})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Status: statusError, Error: appErr})
}
