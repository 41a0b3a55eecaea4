package payment

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the orchestrator's Prometheus collectors.
type Metrics struct {
	IntentsCreated     prometheus.Counter
	Transitions        *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	Computations       *prometheus.CounterVec
	ComputationLatency prometheus.Histogram
}

// NewMetrics initializes the collectors without registering them.
func NewMetrics() *Metrics {
	return &Metrics{
		IntentsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "payment_intents_created_total",
				Help: "Number of payment intents created",
			},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_intent_transitions_total",
				Help: "Number of applied lifecycle transitions",
			},
			[]string{"event"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_intent_rejections_total",
				Help: "Number of lifecycle operations rejected for the current state",
			},
			[]string{"event"},
		),
		Computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpc_computations_total",
				Help: "Number of MPC calls by outcome",
			},
			[]string{"operation", "outcome"},
		),
		ComputationLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mpc_computation_latency_seconds",
				Help:    "Latency of MPC calls",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.IntentsCreated,
		m.Transitions,
		m.Rejections,
		m.Computations,
		m.ComputationLatency,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
