package respond

import "github.com/gin-gonic/gin"

// JSON writes payload with the given status. Success payloads go through
// here so handlers never touch gin's context encoding directly.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
