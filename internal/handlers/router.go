package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// refreshCORS matches what browser clients of the refresh endpoint send.
var refreshCORS = cors.Config{
	AllowAllOrigins: true,
	AllowMethods:    []string{http.MethodGet, http.MethodOptions},
	AllowHeaders:    []string{"authorization", "x-client-info", "apikey", "content-type"},
}

// RouterConfig wires the handlers into a router.
type RouterConfig struct {
	Properties     *PropertyHandler
	Ingest         *IngestHandler
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", healthCheck)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	fn := r.Group("/functions/v1", cors.New(refreshCORS))
	{
		fn.GET("/fetch-properties", cfg.Ingest.FetchProperties)
		fn.OPTIONS("/fetch-properties", cfg.Ingest.FetchProperties)
	}

	api := r.Group("/api", cors.New(apiCORS(cfg.AllowedOrigins)))
	{
		api.GET("/properties", cfg.Properties.List)
		api.GET("/properties/:id", cfg.Properties.Get)
		api.GET("/search", cfg.Properties.Search)
		api.GET("/ratelimit/stats", cfg.Ingest.RateLimitStats)
		api.POST("/ingest/run", cfg.Ingest.TriggerIngest)
	}

	return r
}

func apiCORS(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("Request failed", fields...)
			return
		}
		logger.Debug("Request handled", fields...)
	}
}
