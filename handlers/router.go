package handlers

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecg-viewer/auth"
)

type RouterConfig struct {
	AllowOrigins  []string
	TemplatesGlob string // pages are served only when this matches at least one file
	StaticDir     string
}

// NewRouter wires the viewer API, pages, health and metrics endpoints.
func NewRouter(h *Handler, cfg RouterConfig, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.logger))
	r.Use(cors.New(corsConfig(cfg.AllowOrigins)))

	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			r.Static("/static", cfg.StaticDir)
		}
	}

	r.GET("/health", h.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)

		api.GET("/find/:id", h.FindRecordings)
		api.GET("/leads/:id", h.GetLeads)
		api.GET("/anno/:id", h.GetAnnotation)
		api.GET("/anno/:id/history", h.GetAnnotationHistory)
		api.GET("/stats", h.GetStats)

		private := api.Group("", auth.RequireAuth(h.jwt))
		private.POST("/anno/:id", h.SetAnnotation)
		private.POST("/hold/:id", h.HoldRecording)
	}

	if hasTemplates(cfg.TemplatesGlob) {
		r.LoadHTMLGlob(cfg.TemplatesGlob)
		r.GET("/", h.Index)
		r.GET("/:id", h.RecordingPage)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// credentials cannot be combined with a literal wildcard origin
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func hasTemplates(glob string) bool {
	if glob == "" {
		return false
	}
	matches, err := filepath.Glob(glob)
	return err == nil && len(matches) > 0
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= 500 {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP())
	}
}
