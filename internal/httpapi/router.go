// Package httpapi exposes the guidance pipeline over HTTP for the host
// application.
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
)

// RouterConfig carries the router dependencies
type RouterConfig struct {
	Guider Guider
	Server model.ServerConfig
	Logger logging.Logger
}

// NewRouter builds the gin engine with guidance, health and metrics routes
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := logging.OrNop(cfg.Logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(accessLog(logger))
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	router.GET("/healthz", Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	guidance := NewGuidanceHandler(cfg.Guider, cfg.Server.RequestTimeout, logger)
	api := router.Group("/api/v1")
	api.POST("/guidance", guidance.Guide)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

// accessLog logs one line per request; the body is never logged
func accessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
