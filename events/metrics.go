package events

import "github.com/prometheus/client_golang/prometheus"

type metricsProvider struct {
	published *prometheus.CounterVec
	delivered *prometheus.CounterVec
}

func newMetricsProvider(registry *prometheus.Registry) *metricsProvider {
	if registry == nil {
		return nil
	}

	p := &metricsProvider{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_events_published_total",
				Help: "Total number of task events published by event type",
			},
			[]string{"event_type"},
		),
		delivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_events_delivered_total",
				Help: "Total number of task events delivered to subscribers by event type",
			},
			[]string{"event_type"},
		),
	}
	registry.MustRegister(p.published, p.delivered)
	return p
}

func (p *metricsProvider) incPublished(t Type) {
	if p != nil {
		p.published.WithLabelValues(string(t)).Inc()
	}
}

func (p *metricsProvider) incDelivered(t Type) {
	if p != nil {
		p.delivered.WithLabelValues(string(t)).Inc()
	}
}
