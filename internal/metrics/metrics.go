// Package metrics exposes courier's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reply outcomes recorded by ObserveReply.
const (
	ReplySent           = "sent"
	ReplyGenerateFailed = "generate_failed"
	ReplySendFailed     = "send_failed"
)

// Metrics holds every collector courier publishes. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EnvelopesReceived prometheus.Counter
	Replies           *prometheus.CounterVec
	ReplyDuration     prometheus.Histogram
	Sends             *prometheus.CounterVec
	DaemonUp          prometheus.Gauge
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EnvelopesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "daemon",
			Name:      "envelopes_received_total",
			Help:      "Inbound envelopes assembled from signal-cli output",
		}),

		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "dispatch",
			Name:      "replies_total",
			Help:      "Reply attempts by outcome",
		}, []string{"status"}),

		ReplyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "courier",
			Subsystem: "dispatch",
			Name:      "reply_duration_seconds",
			Help:      "Time from envelope hand-off to reply sent or abandoned",
			Buckets:   prometheus.DefBuckets,
		}),

		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "dbus",
			Name:      "sends_total",
			Help:      "Outbound sends by target kind and status",
		}, []string{"target", "status"}),

		DaemonUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "courier",
			Subsystem: "daemon",
			Name:      "up",
			Help:      "1 while the signal-cli daemon is running",
		}),
	}

	m.registry.MustRegister(
		m.EnvelopesReceived,
		m.Replies,
		m.ReplyDuration,
		m.Sends,
		m.DaemonUp,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) ObserveEnvelope() {
	if m == nil {
		return
	}
	m.EnvelopesReceived.Inc()
}

func (m *Metrics) ObserveReply(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(status).Inc()
	m.ReplyDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSend(target string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Sends.WithLabelValues(target, status).Inc()
}

func (m *Metrics) SetDaemonUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.DaemonUp.Set(1)
	} else {
		m.DaemonUp.Set(0)
	}
}
