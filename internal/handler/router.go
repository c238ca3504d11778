package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/noline/locationd/internal/health"
	"github.com/noline/locationd/internal/middleware"
)

// RouterConfig controls router assembly.
type RouterConfig struct {
	ServiceName string
	Development bool

	// Health serves component probes on /health; nil degrades to a static ok.
	Health *health.Checker
}

// NewRouter assembles the HTTP API.
func NewRouter(cfg RouterConfig, location *LocationHandler, permission *PermissionHandler) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middleware.Logging(nil))

	if cfg.Health != nil {
		r.GET("/health", cfg.Health.Handler())
	} else {
		r.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/location", location.GetLocation)
		v1.POST("/location/refresh", location.RefreshLocation)
		v1.GET("/permission", permission.GetPermission)
		v1.POST("/permission/request", permission.RequestPermission)
		v1.POST("/permission/settings", permission.OpenSettings)
	}

	return r
}
