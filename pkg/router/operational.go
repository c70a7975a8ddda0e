package router

import (
	"github.com/tkubota31/express-messagely/internal/api"
	"github.com/tkubota31/express-messagely/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupOperationalRoutes mounts everything outside the versioned API:
// health probes, the Prometheus scrape endpoint and the notification socket.
func (r *Router) setupOperationalRoutes() {
	readiness := r.Container.Health.Handler()
	r.Engine.GET("/health", readiness)
	r.Engine.GET("/api/health", readiness)
	r.Engine.GET("/health/live", api.LivenessHandler(r.Config.Server.Version, startTime))

	if r.Config.Observability.MetricsEnabled {
		r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.Engine.GET("/ws", ws.ServeWs(r.Container.Hub, r.Container.JWTService, r.Config.Security.AllowedOrigins))
}
