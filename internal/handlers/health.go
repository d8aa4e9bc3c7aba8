package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports 503 when the store probe fails. A nil probe is always
// healthy.
func Health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				respondWithError(c, http.StatusServiceUnavailable, "GET /health", "database unavailable")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
