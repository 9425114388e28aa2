package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registry *prometheus.Registry

	requestsCreated    *prometheus.CounterVec
	requestTransitions *prometheus.CounterVec
	chatMessages       *prometheus.CounterVec
	rateLimited        *prometheus.CounterVec
	liveConnections    prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	return &Metrics{
		Registry: registry,
		requestsCreated: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "repair_requests_created_total",
				Help: "Service requests created, by outcome (created or reused).",
			},
			[]string{"outcome"},
		),
		requestTransitions: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "repair_request_transitions_total",
				Help: "Request status transitions, by target status.",
			},
			[]string{"status"},
		),
		chatMessages: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_messages_total",
				Help: "Chat messages persisted, by sender kind.",
			},
			[]string{"sender_kind"},
		),
		rateLimited: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limited_total",
				Help: "Operations rejected by the rate guard, by action.",
			},
			[]string{"action"},
		),
		liveConnections: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "realtime_connections",
				Help: "Currently open realtime stream connections.",
			},
		),
	}
}

func (m *Metrics) IncRequestCreated(reused bool) {
	outcome := "created"
	if reused {
		outcome = "reused"
	}
	m.requestsCreated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncTransition(status string) {
	m.requestTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncChatMessage(senderKind string) {
	m.chatMessages.WithLabelValues(senderKind).Inc()
}

func (m *Metrics) IncRateLimited(action string) {
	m.rateLimited.WithLabelValues(action).Inc()
}

func (m *Metrics) ConnectionOpened() { m.liveConnections.Inc() }
func (m *Metrics) ConnectionClosed() { m.liveConnections.Dec() }
