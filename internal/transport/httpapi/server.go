// Package httpapi exposes guide runs over HTTP.
package httpapi

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewServer builds the gin engine with all routes registered.
func NewServer(h *Handler, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if logger == nil {
		logger = slog.Default()
	}

	g := gin.New()
	g.Use(gin.Recovery(), RequestLogger(logger))
	g.GET("/healthz", h.Health)

	api := g.Group("/api")
	RegisterRoutes(api, h)
	return g
}

// RegisterRoutes mounts the run and guide endpoints.
func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	runs := router.Group("/runs")
	{
		runs.POST("", h.StartRun)
		runs.GET("/status", h.RunStatus)
	}
	router.POST("/rewrite-guide", h.RewriteGuide)
	router.GET("/test-ingest", h.TestIngest)
}
