package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDurationMs *prometheus.HistogramVec

	conversionsTotal     *prometheus.CounterVec
	conversionDurationMs *prometheus.HistogramVec

	uploadBytesTotal     prometheus.Counter
	uploadRejectedTotal  *prometheus.CounterVec
	conversionsInFlight  prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	m.httpRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 12),
	}, []string{"method", "route"})

	m.conversionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conversions_total",
		Help: "Total number of conversion attempts.",
	}, []string{"format", "status"})
	m.conversionDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "conversion_duration_ms",
		Help:    "Conversion duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 14),
	}, []string{"format"})

	m.uploadBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upload_bytes_total",
		Help: "Total number of accepted upload bytes.",
	})
	m.uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_rejected_total",
		Help: "Total number of rejected uploads.",
	}, []string{"reason"})
	m.conversionsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "conversions_in_flight",
		Help: "Number of conversions currently running.",
	})

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDurationMs,
		m.conversionsTotal,
		m.conversionDurationMs,
		m.uploadBytesTotal,
		m.uploadRejectedTotal,
		m.conversionsInFlight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	route = strings.TrimSpace(route)
	if route == "" {
		route = "unknown"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	ms := float64(duration.Milliseconds())
	if ms < 0 {
		ms = 0
	}
	m.httpRequestDurationMs.WithLabelValues(method, route).Observe(ms)
}

func (m *Metrics) ObserveConversion(format, status string, duration time.Duration) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.conversionsTotal.WithLabelValues(format, status).Inc()
	ms := float64(duration.Milliseconds())
	if ms < 0 {
		ms = 0
	}
	m.conversionDurationMs.WithLabelValues(format).Observe(ms)
}

func (m *Metrics) AddUploadBytes(bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.uploadBytesTotal.Add(float64(bytes))
}

func (m *Metrics) IncUploadRejected(reason string) {
	if m == nil {
		return
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	m.uploadRejectedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncConversionsInFlight() {
	if m == nil {
		return
	}
	m.conversionsInFlight.Inc()
}

func (m *Metrics) DecConversionsInFlight() {
	if m == nil {
		return
	}
	m.conversionsInFlight.Dec()
}
