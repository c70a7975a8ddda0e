package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// LivenessResponse is returned by the liveness probe
type LivenessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// LivenessHandler reports that the process is serving requests.
// Dependency status lives on /health.
func LivenessHandler(version string, started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, LivenessResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   version,
			Uptime:    time.Since(started).Round(time.Second).String(),
		})
	}
}
