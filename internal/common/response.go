package common

import "github.com/gin-gonic/gin"

// OK writes the payload as-is. Handlers own their response shapes.
func OK(c *gin.Context, data any) {
	c.JSON(200, data)
}

// Fail writes a single descriptive error body.
func Fail(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"error": msg})
}
