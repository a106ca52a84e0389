package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/printeasy-orderflow/internal/logger"
	"github.com/imrishuroy/printeasy-orderflow/internal/metrics"
	"github.com/imrishuroy/printeasy-orderflow/internal/session"
	"github.com/imrishuroy/printeasy-orderflow/internal/storage"
)

// RouterConfig is everything the HTTP surface needs.
type RouterConfig struct {
	Sessions      *session.Manager
	SecureCookies bool
	Intake        IntakeConfig
	Admin         AdminConfig
	Metrics       *metrics.Registry
	FilesDir      string // set when uploads are stored locally
}

// NewRouter wires the public, intake and admin routes onto a gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.FilesDir != "" {
		r.Static(storage.FilesRoute, cfg.FilesDir)
	}

	api := r.Group("", Sessions(cfg.Sessions, cfg.SecureCookies))
	RegisterSessionRoutes(api)
	RegisterIntakeRoutes(api, cfg.Intake)
	RegisterAdminRoutes(api, cfg.Admin)

	return r
}
