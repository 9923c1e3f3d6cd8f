package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"property-browser/internal/ingest"
	"property-browser/internal/ratelimit"
	"property-browser/internal/scheduler"
)

// IngestRunner runs one ingestion.
type IngestRunner interface {
	Run(ctx context.Context, req ingest.Request) (*ingest.Result, error)
}

// PassRunner runs the scheduled ingestion pass on demand.
type PassRunner interface {
	RunNow(ctx context.Context) scheduler.Summary
}

// StatsSource reports provider rate limit usage.
type StatsSource interface {
	RateLimitStats() ratelimit.Stats
}

// IngestHandler serves the refresh endpoint and ingestion controls.
type IngestHandler struct {
	runner     IngestRunner
	scheduler  PassRunner
	stats      StatsSource
	passWindow time.Duration
	logger     *zap.Logger
}

// NewIngestHandler creates an IngestHandler. sched and stats may be nil.
func NewIngestHandler(runner IngestRunner, sched PassRunner, stats StatsSource, logger *zap.Logger) *IngestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestHandler{
		runner:     runner,
		scheduler:  sched,
		stats:      stats,
		passWindow: 10 * time.Minute,
		logger:     logger,
	}
}

// FetchProperties ingests one page from the provider for the query
// parameters and returns the stored rows.
func (h *IngestHandler) FetchProperties(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.String(http.StatusOK, "ok")
		return
	}

	var req ingest.Request
	// Binding into plain strings cannot fail.
	_ = c.ShouldBindQuery(&req)

	result, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Error fetching properties", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":  false,
			"error":    err.Error(),
			"fallback": "Using mock data",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(result.Properties),
		"properties": result.Properties,
	})
}

// TriggerIngest starts a scheduled pass in the background.
func (h *IngestHandler) TriggerIngest(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler not available"})
		return
	}

	h.logger.Info("Manual ingestion trigger requested")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.passWindow)
		defer cancel()
		sum := h.scheduler.RunNow(ctx)
		if sum.Skipped {
			h.logger.Info("Manual ingestion skipped, a pass is already running")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Ingestion started",
		"status":  "running",
	})
}

// RateLimitStats returns the provider limiter counters.
func (h *IngestHandler) RateLimitStats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusOK, ratelimit.Stats{Enabled: false})
		return
	}
	c.JSON(http.StatusOK, h.stats.RateLimitStats())
}
