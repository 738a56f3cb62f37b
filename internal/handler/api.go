package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/yuxishi/zvm-license-report/internal/cache"
	"github.com/yuxishi/zvm-license-report/internal/model"
	"github.com/yuxishi/zvm-license-report/internal/report"
	"github.com/yuxishi/zvm-license-report/internal/telemetry"
)

const (
	reportKey      = "report"
	collectTimeout = 2 * time.Minute
)

// Collector produces a fresh aggregate from the ZVM.
type Collector interface {
	Collect(ctx context.Context) (*model.ZertoData, error)
}

// Prober checks ZVM connectivity.
type Prober interface {
	Ping(ctx context.Context) bool
}

type Handler struct {
	collector Collector
	prober    Prober
	cache     *cache.Cache[*model.ZertoData]
	metrics   *telemetry.LicenseCollector
	log       log.FieldLogger
	group     singleflight.Group
}

func New(collector Collector, prober Prober, c *cache.Cache[*model.ZertoData], logger log.FieldLogger) *Handler {
	return &Handler{
		collector: collector,
		prober:    prober,
		cache:     c,
		log:       logger,
	}
}

// SetTelemetry makes every fresh collection update the Prometheus snapshot.
func (h *Handler) SetTelemetry(m *telemetry.LicenseCollector) {
	h.metrics = m
}

// Routes registers the dashboard, API and export endpoints.
func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/", h.Dashboard)

	api := r.Group("/api")
	{
		api.GET("/report", h.GetReport)
		api.GET("/metrics", h.GetMetrics)
		api.GET("/alerts", h.GetAlerts)
		api.GET("/health", h.Health)
		api.POST("/refresh", h.Refresh)
	}

	export := r.Group("/export")
	{
		export.GET("/html", h.ExportHTML)
		export.GET("/csv", h.ExportCSV)
		export.GET("/json", h.ExportJSON)
	}
}

// report returns the cached aggregate or collects a new one. Concurrent
// misses share a single collection, detached from the first caller's
// cancellation. When collection fails the last known report is served
// until the cache evicts it.
func (h *Handler) report(ctx context.Context) (*model.ZertoData, bool, error) {
	if cached, ok := h.cache.Get(reportKey); ok {
		return cached, true, nil
	}

	v, err, _ := h.group.Do(reportKey, func() (interface{}, error) {
		collectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), collectTimeout)
		defer cancel()

		data, err := h.collector.Collect(collectCtx)
		if err != nil {
			return nil, err
		}
		h.cache.Set(reportKey, data)
		if h.metrics != nil {
			h.metrics.Update(data)
		}
		return data, nil
	})
	if err != nil {
		if stale, ok := h.cache.Peek(reportKey); ok {
			h.log.WithError(err).Warn("report collection failed, serving last known report")
			return stale, true, nil
		}
		h.log.WithError(err).Error("report collection failed")
		return nil, false, err
	}
	return v.(*model.ZertoData), false, nil
}

func (h *Handler) Dashboard(c *gin.Context) {
	data, _, err := h.report(c.Request.Context())
	if err != nil {
		c.String(http.StatusBadGateway, "Report unavailable: %v", err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteHTML(c.Writer, data); err != nil {
		h.log.WithError(err).Error("render dashboard")
	}
}

func (h *Handler) GetReport(c *gin.Context) {
	data, fromCache, err := h.report(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":     data.Redacted(),
		"from_cache": fromCache,
	})
}

func (h *Handler) GetMetrics(c *gin.Context) {
	data, fromCache, err := h.report(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metrics":    data.Metrics,
		"from_cache": fromCache,
	})
}

func (h *Handler) GetAlerts(c *gin.Context) {
	data, fromCache, err := h.report(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	alerts := data.Metrics.Alerts
	if alerts == nil {
		alerts = []model.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{
		"alerts":     alerts,
		"total":      len(alerts),
		"from_cache": fromCache,
	})
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if !h.prober.Ping(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Refresh(c *gin.Context) {
	h.cache.Clear()
	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared successfully",
	})
}
