package monitor

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Metrics holds the application metrics
type Metrics struct {
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionsSuccess *prometheus.CounterVec
	ResolutionsFailed  *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec
	StrategyWins       *prometheus.CounterVec
	RateLimited        prometheus.Counter
	ProxyBytes         prometheus.Counter

	Goroutines  prometheus.Gauge
	MemoryUsage prometheus.Gauge
}

// NewMetrics creates and registers the metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ResolutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_resolver_resolutions_total",
				Help: "Total number of resolution attempts",
			},
			[]string{"platform"},
		),

		ResolutionsSuccess: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_resolver_resolutions_success_total",
				Help: "Total number of successful resolutions",
			},
			[]string{"platform", "quality"},
		),

		ResolutionsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_resolver_resolutions_failed_total",
				Help: "Total number of failed resolutions",
			},
			[]string{"platform", "error_kind"},
		),

		ResolutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "video_resolver_resolution_duration_seconds",
				Help:    "Time spent resolving a post URL",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"platform"},
		),

		StrategyWins: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_resolver_strategy_wins_total",
				Help: "Winning extraction strategy per resolution",
			},
			[]string{"platform", "strategy"},
		),

		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "video_resolver_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),

		ProxyBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "video_resolver_proxy_bytes_total",
			Help: "Bytes streamed through the download proxy",
		}),

		Goroutines: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "video_resolver_goroutines",
			Help: "Number of goroutines",
		}),

		MemoryUsage: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "video_resolver_memory_usage_bytes",
			Help: "Memory usage in bytes",
		}),
	}
}

// Monitor collects runtime metrics in the background
type Monitor struct {
	metrics  *Metrics
	logger   zerolog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMonitor creates a monitor instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:  NewMetrics(),
		logger:   zerolog.New(os.Stdout).With().Timestamp().Str("component", "monitor").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start begins background collection of runtime metrics
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.collectSystemMetrics()

	m.logger.Info().Msg("Monitoring started")
}

// Stop halts background collection
func (m *Monitor) Stop() {
	close(m.stopChan)
	m.wg.Wait()

	m.logger.Info().Msg("Monitoring stopped")
}

func (m *Monitor) collectSystemMetrics() {
	defer m.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			m.metrics.MemoryUsage.Set(float64(memStats.Alloc))

		case <-m.stopChan:
			return
		}
	}
}

// RecordResolutionStart records one resolution attempt
func (m *Monitor) RecordResolutionStart(platform string) {
	m.metrics.ResolutionsTotal.WithLabelValues(platform).Inc()
}

// RecordResolutionSuccess records a winning resolution
func (m *Monitor) RecordResolutionSuccess(platform, quality, strategy string, duration time.Duration) {
	m.metrics.ResolutionsSuccess.WithLabelValues(platform, quality).Inc()
	m.metrics.StrategyWins.WithLabelValues(platform, strategy).Inc()
	m.metrics.ResolutionDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordResolutionFailure records a terminal failure
func (m *Monitor) RecordResolutionFailure(platform, errorKind string, duration time.Duration) {
	m.metrics.ResolutionsFailed.WithLabelValues(platform, errorKind).Inc()
	m.metrics.ResolutionDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordRateLimited records a rate-limited request
func (m *Monitor) RecordRateLimited() {
	m.metrics.RateLimited.Inc()
}

// RecordProxyBytes records bytes streamed through the download proxy
func (m *Monitor) RecordProxyBytes(n int64) {
	m.metrics.ProxyBytes.Add(float64(n))
}

// GetMetrics returns the metrics instance
func (m *Monitor) GetMetrics() *Metrics {
	return m.metrics
}

// HealthCheck reports basic runtime health
func (m *Monitor) HealthCheck() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"goroutines":   runtime.NumGoroutine(),
		"memory_usage": memStats.Alloc,
		"memory_sys":   memStats.Sys,
		"gc_cycles":    memStats.NumGC,
	}
}
