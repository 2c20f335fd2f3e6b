package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadcrumbs_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "breadcrumbs_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	crumbsPickedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breadcrumbs_crumbs_picked_total",
			Help: "Total number of crumbs successfully picked up.",
		},
	)
	noteOpensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadcrumbs_note_opens_total",
			Help: "Total number of note opens by range outcome.",
		},
		[]string{"result"},
	)
	sensorErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breadcrumbs_sensor_errors_total",
			Help: "Total number of device geolocation failures reported.",
		},
	)
	activeWatchStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "breadcrumbs_watch_streams_active",
			Help: "Number of open position watch streams.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		crumbsPickedTotal,
		noteOpensTotal,
		sensorErrorsTotal,
		activeWatchStreams,
	)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
