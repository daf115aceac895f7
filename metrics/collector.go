// Package metrics records module lifecycle transitions as prometheus
// metrics. Collector plugs into a core.Manager via core.WithObserver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/skekre98/arc/core"
)

const namespace = "arc"

type Collector struct {
	starts   *prometheus.CounterVec
	stops    *prometheus.CounterVec
	failures *prometheus.CounterVec
	running  *prometheus.GaugeVec
}

var _ core.Observer = (*Collector)(nil)

// NewCollector registers the lifecycle metrics on reg. It panics if they
// are already registered there.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		starts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_starts_total",
			Help:      "Module starts driven by the manager.",
		}, []string{"module"}),
		stops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_stops_total",
			Help:      "Module stops driven by the manager.",
		}, []string{"module"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_failures_total",
			Help:      "Lifecycle hook failures by stage.",
		}, []string{"module", "stage"}),
		running: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "module_running",
			Help:      "1 while the module is running.",
		}, []string{"module"}),
	}
}

func (c *Collector) ModuleStarted(m core.Module) {
	c.starts.WithLabelValues(m.Name()).Inc()
	c.running.WithLabelValues(m.Name()).Set(1)
}

func (c *Collector) ModuleStopped(m core.Module) {
	c.stops.WithLabelValues(m.Name()).Inc()
	c.running.WithLabelValues(m.Name()).Set(0)
}

func (c *Collector) ModuleFailed(m core.Module, stage core.Stage, _ error) {
	c.failures.WithLabelValues(m.Name(), string(stage)).Inc()
}
