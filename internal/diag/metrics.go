package diag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the gateway's Prometheus surface, exposed at /varz: one
// counter per command-engine event kind, plus per-instrument alarm and
// per-relay state vectors.
type Metrics struct {
	CommandsSubmitted prometheus.Counter
	CommandsRetried   prometheus.Counter
	CommandsFailed    prometheus.Counter
	CommandsDone      prometheus.Counter
	FramesDropped     prometheus.Counter
	BulletinsDecoded  prometheus.Counter
	AlarmsRaised      *prometheus.CounterVec
	RelayState        *prometheus.GaugeVec
}

// NewMetrics registers every collector against reg (typically
// prometheus.NewRegistry(), not the global default, so tests can build
// isolated instances).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommandsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ema_gateway_commands_submitted_total",
			Help: "Commands submitted to the command engine.",
		}),
		CommandsRetried: factory.NewCounter(prometheus.CounterOpts{
			Name: "ema_gateway_commands_retried_total",
			Help: "Command retransmissions after a timeout.",
		}),
		CommandsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ema_gateway_commands_failed_total",
			Help: "Commands that exhausted retries or errored on send.",
		}),
		CommandsDone: factory.NewCounter(prometheus.CounterOpts{
			Name: "ema_gateway_commands_done_total",
			Help: "Commands that completed with a matched response.",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ema_gateway_frames_dropped_total",
			Help: "Inbound frames matched to no in-flight command while the engine has no bulletin handler.",
		}),
		BulletinsDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "ema_gateway_bulletins_decoded_total",
			Help: "Status bulletins successfully decoded.",
		}),
		AlarmsRaised: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ema_gateway_alarms_raised_total",
			Help: "Alarms raised, by instrument.",
		}, []string{"instrument"}),
		RelayState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ema_gateway_relay_state",
			Help: "Current relay state (1=closed, 0=open) by relay.",
		}, []string{"relay"}),
	}
}
