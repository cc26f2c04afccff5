// Package metrics exposes the protocol engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sudp"

// Engine holds the counters and gauges the protocol engine drives.
type Engine struct {
	SessionsActive   prometheus.Gauge
	SessionsOpened   prometheus.Counter
	SessionsClosed   prometheus.Counter
	PacketsLost      prometheus.Counter
	PacketsDuplicate prometheus.Counter
	ProtocolErrors   prometheus.Counter
	Collisions       prometheus.Counter
	IdleTimeouts     prometheus.Counter
}

// New registers the engine metrics with the given registry.
func New(reg prometheus.Registerer) *Engine {
	factory := promauto.With(reg)
	return &Engine{
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live sessions in the session table",
		}),
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Total number of sessions created",
		}),
		SessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Total number of sessions terminated and reaped",
		}),
		PacketsLost: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_lost_total",
			Help:      "Total number of sequence numbers reported lost",
		}),
		PacketsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_duplicate_total",
			Help:      "Total number of duplicate datagrams discarded",
		}),
		ProtocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total number of protocol violations answered with GOODBYE",
		}),
		Collisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collisions_total",
			Help:      "Total number of session id collisions rejected",
		}),
		IdleTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idle_timeouts_total",
			Help:      "Total number of sessions reaped by idle timeout",
		}),
	}
}
