package interpreter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsProvider struct {
	intents         *prometheus.CounterVec
	operations      *prometheus.CounterVec
	oracleRequests  *prometheus.CounterVec
	oracleDurations prometheus.Histogram
}

func newMetricsProvider(registry *prometheus.Registry) *metricsProvider {
	if registry == nil {
		return nil
	}

	p := &metricsProvider{
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_interpreter_intents_total",
				Help: "Total number of interpreted utterances by intent and source",
			},
			[]string{"intent", "source"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_interpreter_operations_total",
				Help: "Total number of task operations attempted by the interpreter",
			},
			[]string{"tool", "outcome"},
		),
		oracleRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_oracle_requests_total",
				Help: "Total number of oracle requests by outcome",
			},
			[]string{"outcome"},
		),
		oracleDurations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "todo_oracle_request_duration_seconds",
				Help:    "Latency of oracle requests",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	registry.MustRegister(p.intents, p.operations, p.oracleRequests, p.oracleDurations)
	return p
}

func (p *metricsProvider) incIntent(intent Intent, source Source) {
	if p != nil {
		p.intents.WithLabelValues(string(intent), string(source)).Inc()
	}
}

func (p *metricsProvider) incOperation(intent Intent, outcome string) {
	if p != nil {
		p.operations.WithLabelValues(string(intent), outcome).Inc()
	}
}

func (p *metricsProvider) observeOracle(outcome string, elapsed time.Duration) {
	if p != nil {
		p.oracleRequests.WithLabelValues(outcome).Inc()
		p.oracleDurations.Observe(elapsed.Seconds())
	}
}
