package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the global metrics registry, exported on PROM_PORT via ServeMetrics.
var Metrics = struct {
	RequestsTotal   *prometheus.CounterVec
	RequestErrors   *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
	RateLimiterWait prometheus.Histogram
	EventsOut       *prometheus.CounterVec
	BusDropped      prometheus.Counter
	BusDepth        prometheus.Gauge
	SinkErrors      *prometheus.CounterVec
	ActiveGames     prometheus.Gauge
	Highlights      *prometheus.CounterVec
}{
	RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Upstream REST requests by endpoint",
	}, []string{"endpoint"}),
	RequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_errors_total",
		Help: "Upstream REST errors by endpoint and status",
	}, []string{"endpoint", "status"}),
	RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_latency_seconds",
		Help:    "Upstream REST latency by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"}),
	RateLimiterWait: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rate_limiter_wait_seconds",
		Help:    "Time spent blocked on the hourly token bucket",
		Buckets: []float64{.001, .01, .1, 1, 10, 60, 600, 3600},
	}),
	EventsOut: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_events_out_total",
		Help: "Events published onto the bus by type",
	}, []string{"type"}),
	BusDropped: promauto.NewCounter(prometheus.CounterOpts{
		Name: "bus_dropped_total",
		Help: "Events dropped because the bus queue was full",
	}),
	BusDepth: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bus_depth",
		Help: "Events currently queued on the bus",
	}),
	SinkErrors: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sink_errors_total",
		Help: "Sink write failures by sink",
	}, []string{"sink"}),
	ActiveGames: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "live_active_games",
		Help: "Live games currently being tailed",
	}),
	Highlights: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "highlights_emitted_total",
		Help: "Highlights emitted by kind",
	}, []string{"kind"}),
}

// ServeMetrics exposes /metrics on the given port in the background.
func ServeMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			Errorf("metrics server: %v", err)
		}
	}()
	Infof("Prometheus metrics on :%d/metrics", port)
}
