package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports "busy" when every session slot is taken, so new sessions queue.
func Health(sessions *Sessions, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, limit := sessions.Active(), sessions.Max()

		status := "healthy"
		if limit > 0 && active >= limit {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         status,
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			ActiveSessions: active,
			MaxSessions:    limit,
			Version:        Version,
		})
	}
}
