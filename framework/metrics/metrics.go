package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/km-arc/iothub-manager/framework/container"
)

// Resolutions counts container resolutions by service type and lifetime.
type Resolutions struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
}

// NewResolutions registers the resolution counter on a private registry.
func NewResolutions() *Resolutions {
	reg := prometheus.NewRegistry()
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iothubmanager",
		Subsystem: "container",
		Name:      "resolutions_total",
		Help:      "Number of services resolved from the dependency container.",
	}, []string{"service", "lifetime"})
	reg.MustRegister(total)
	return &Resolutions{registry: reg, total: total}
}

// Observe is a container.Builder AfterResolving hook.
func (m *Resolutions) Observe(ev container.ResolvedEvent) {
	m.total.WithLabelValues(ev.Service.String(), ev.Lifetime.String()).Inc()
}

// Count returns the current counter value for one service/lifetime pair.
func (m *Resolutions) Count(service, lifetime string) float64 {
	c, err := m.total.GetMetricWithLabelValues(service, lifetime)
	if err != nil {
		return 0
	}
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Resolutions) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
