// Package prom exports an lfht metrics.Registry as Prometheus collectors,
// the way go-ethereum's metrics/prometheus package exports its own registry.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rcuhash/lfht/metrics"
)

// Collector adapts a metrics.Registry to prometheus.Collector, describing
// every Counter as a prometheus Counter and every Gauge as a prometheus
// Gauge, namespaced under the namespace given to NewCollector.
type Collector struct {
	namespace string
	registry  metrics.Registry
}

// NewCollector wraps registry for the given namespace (e.g. "lfht").
func NewCollector(namespace string, registry metrics.Registry) *Collector {
	return &Collector{namespace: namespace, registry: registry}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Dynamic metric set: Prometheus allows unchecked collectors, so
	// Describe intentionally emits nothing (see MustRegister below for
	// the corresponding unchecked registration).
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.registry.Each(func(name string, i interface{}) {
		desc := prometheus.NewDesc(
			prometheus.BuildFQName(c.namespace, "", name),
			"lfht metric "+name,
			nil, nil,
		)
		switch m := i.(type) {
		case metrics.Counter:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(m.Snapshot().Count()))
		case metrics.Gauge:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(m.Snapshot().Value()))
		}
	})
}

// MustRegister registers c with reg. Because Describe intentionally sends
// nothing, client_golang treats c as an unchecked collector and skips the
// consistency checks that assume a fixed, known-in-advance metric set.
func MustRegister(reg *prometheus.Registry, c *Collector) {
	reg.MustRegister(c)
}
