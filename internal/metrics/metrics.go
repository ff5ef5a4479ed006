package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the HTTP server and the
// database pool.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	DBPoolStats      *prometheus.GaugeVec

	AttemptsStarted   prometheus.Counter
	AttemptsSubmitted prometheus.Counter
	AttemptsExpired   prometheus.Counter
}

func New(service string) *Metrics {
	return &Metrics{
		RequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "examhall",
				Subsystem: service,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "examhall",
				Subsystem: service,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "examhall",
				Subsystem: service,
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		DBPoolStats: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "examhall",
				Subsystem: service,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"},
		),
		AttemptsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "examhall",
			Subsystem: service,
			Name:      "attempts_started_total",
			Help:      "Exam attempts started",
		}),
		AttemptsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "examhall",
			Subsystem: service,
			Name:      "attempts_submitted_total",
			Help:      "Exam attempts submitted by students",
		}),
		AttemptsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "examhall",
			Subsystem: service,
			Name:      "attempts_expired_total",
			Help:      "Exam attempts finalized by the sweeper",
		}),
	}
}

// Handler serves the scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request, labeled by the chi route pattern so
// path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}

// RecordDBStats publishes one sample of pool statistics.
func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	m.DBPoolStats.WithLabelValues("open").Set(float64(stats.OpenConnections))
	m.DBPoolStats.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.DBPoolStats.WithLabelValues("idle").Set(float64(stats.Idle))
	m.DBPoolStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
	m.DBPoolStats.WithLabelValues("wait_duration_ms").Set(float64(stats.WaitDuration.Milliseconds()))
}
