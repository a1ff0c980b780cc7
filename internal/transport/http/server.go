package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/config"
	"github.com/vovakirdan/pdxirc/internal/core"
)

// NewServer builds the operator HTTP server: read-only API routes plus the
// WebSocket transport on /ws.
func NewServer(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(hub, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	api := NewAPIHandlers(hub, logger)
	router.GET("/health", api.Health)

	group := router.Group("/api")
	group.GET("/channels", api.Channels)
	group.GET("/channels/:name/users", api.ChannelUsers)
	group.GET("/stats", api.Stats)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))

	return router
}
