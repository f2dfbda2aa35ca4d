package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat/internal/auth"
	"github.com/vovakirdan/pulsechat/internal/config"
	"github.com/vovakirdan/pulsechat/internal/core"
	"github.com/vovakirdan/pulsechat/internal/metrics"
)

// NewServer builds an HTTP server with the websocket endpoint, the purge trigger and read-only views.
func NewServer(hub *core.Hub, cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	api := NewAPIHandlers(hub, cfg.StaticDir, logger)

	router.GET("/", api.Index)
	router.GET("/styles.css", api.Styles)
	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	purge := router.Group("/clear")
	if cfg.AdminJWTSecret != "" {
		purge.Use(AdminMiddleware(auth.NewAdminJWTConfig(cfg.AdminJWTSecret, 0), logger))
	}
	purge.POST("", api.Clear)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/online", api.Online)
		apiGroup.GET("/messages", api.Messages)
		apiGroup.GET("/reactions/:id", api.Reaction)
	}

	corsOrigins := cfg.AllowedOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	handler := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}).Handler(router)

	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
