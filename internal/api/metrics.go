package api

import (
	"net/http"
	"strconv"
	"time"

	"chatbot-backend/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// httpMetrics holds the per-server HTTP collectors. Route labels use the
// mux pattern, so /chat/{botId} is one series no matter how many bots exist.
type httpMetrics struct {
	gatherer   prometheus.Gatherer
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	active     prometheus.Gauge
	queueDepth prometheus.GaugeFunc
}

func newMetrics(reg prometheus.Registerer, listenAddr string, q *queue.RequestQueueManager) *httpMetrics {
	server := prometheus.Labels{"listen_addr": listenAddr}
	routeLabels := []string{"method", "route", "status"}

	m := &httpMetrics{
		gatherer: prometheus.DefaultGatherer,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "chatbot_http_requests_total",
			Help:        "HTTP requests served, by route pattern and status.",
			ConstLabels: server,
		}, routeLabels),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "chatbot_http_request_duration_seconds",
			Help:        "HTTP request latency, by route pattern and status.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			ConstLabels: server,
		}, routeLabels),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "chatbot_http_inflight_requests",
			Help:        "Requests currently being served.",
			ConstLabels: server,
		}),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	reg.MustRegister(m.requests, m.latency, m.active)

	if q != nil {
		m.queueDepth = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "chatbot_request_queue_depth",
			Help:        "Handler jobs waiting for a queue worker.",
			ConstLabels: server,
		}, func() float64 { return float64(len(q.JobQueue)) })
		reg.MustRegister(m.queueDepth)
	}

	return m
}

func (m *httpMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *httpMetrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.active.Inc()
		defer m.active.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		labels := []string{r.Method, routeLabel(r), strconv.Itoa(rec.status)}
		m.requests.WithLabelValues(labels...).Inc()
		m.latency.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}

// routeLabel reads the pattern the mux matched. Requests that matched
// nothing share one label.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}
