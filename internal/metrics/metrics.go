// Package metrics exposes prometheus collectors for the chat core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pulsechat"

// Login results recorded by LoginsTotal.
const (
	LoginGuest    = "guest"
	LoginSignup   = "signup"
	LoginSuccess  = "login"
	LoginRejected = "rejected"
	LoginFailed   = "failed"
)

// Metrics groups the collectors updated by the hub. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ConnectedClients prometheus.Gauge
	OnlineUsers      prometheus.Gauge
	MessagesTotal    prometheus.Counter
	ReactionsTotal   prometheus.Counter
	DroppedEvents    prometheus.Counter
	LoginsTotal      *prometheus.CounterVec
}

// New builds the collectors on a private registry so tests can create many instances.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Open realtime connections, authenticated or not.",
		}),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Entries in the presence registry.",
		}),
		MessagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Chat messages persisted and broadcast.",
		}),
		ReactionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_total",
			Help:      "Reaction increments applied.",
		}),
		DroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Outbound events dropped because a client queue was full.",
		}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Join and signup-or-login attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.ConnectedClients,
		m.OnlineUsers,
		m.MessagesTotal,
		m.ReactionsTotal,
		m.DroppedEvents,
		m.LoginsTotal,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetConnected records the number of open connections.
func (m *Metrics) SetConnected(n int) {
	if m == nil {
		return
	}
	m.ConnectedClients.Set(float64(n))
}

// SetOnline records the presence registry size.
func (m *Metrics) SetOnline(n int) {
	if m == nil {
		return
	}
	m.OnlineUsers.Set(float64(n))
}

// MessageSent counts one broadcast message.
func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.MessagesTotal.Inc()
}

// ReactionApplied counts one reaction increment.
func (m *Metrics) ReactionApplied() {
	if m == nil {
		return
	}
	m.ReactionsTotal.Inc()
}

// EventDropped counts one event lost to a full client queue.
func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.DroppedEvents.Inc()
}

// Login counts one login attempt with the given result label.
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}
