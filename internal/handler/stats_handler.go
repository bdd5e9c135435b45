package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/middleware"
	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/response"
)

// StatsHandler exposes platform aggregates and operational status.
type StatsHandler struct {
	stats   *service.StatsService
	metrics *service.MetricsService
	backend store.Backend
	admin   *service.AdminService
	started time.Time
}

// NewStatsHandler constructs StatsHandler. admin may be nil when the admin
// surface is disabled.
func NewStatsHandler(stats *service.StatsService, metrics *service.MetricsService, backend store.Backend, admin *service.AdminService) *StatsHandler {
	return &StatsHandler{stats: stats, metrics: metrics, backend: backend, admin: admin, started: time.Now().UTC()}
}

// Overview godoc
// @Summary Platform-wide aggregates with the current ingest position
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Health godoc
// @Summary Liveness probe
// @Tags Stats
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *StatsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe; checks store connectivity
// @Tags Stats
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ready [get]
func (h *StatsHandler) Ready(c *gin.Context) {
	if err := h.backend.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Status godoc
// @Summary Operational snapshot: uptime plus runtime counters
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *StatsHandler) Status(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	payload := gin.H{
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"metrics":        snapshot,
	}
	// Replay state is visible to authenticated operators only.
	if h.admin != nil {
		if _, ok := c.Get(middleware.ContextUserKey); ok {
			payload["replay_running"] = h.admin.Running()
		}
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
