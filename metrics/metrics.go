// Package metrics exports engine activity to Prometheus.
// Defined metrics, under the configured namespace:
//
//	vm_steps_total{op} (counter)
//	vm_gas_total (counter)
//	vm_halts_total (counter)
//	vm_faults_total{kind} (counter)
//	vm_invocation_depth (gauge)
//	vm_run_gas (histogram)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/op"
)

// Collector is a vm.Observer that counts engine events.
// It also satisfies prometheus.Collector. Engines running on
// different goroutines may share one Collector.
type Collector struct {
	steps  *prometheus.CounterVec
	gas    prometheus.Counter
	halts  prometheus.Counter
	faults *prometheus.CounterVec
	depth  prometheus.Gauge
	runGas prometheus.Histogram
}

var _ vm.Observer = (*Collector)(nil)

// NewCollector returns a Collector with metric names prefixed by
// namespace, if not empty.
func NewCollector(namespace string) *Collector {
	return &Collector{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vm_steps_total",
			Help:      "Instructions executed, by opcode.",
		}, []string{"op"}),
		gas: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vm_gas_total",
			Help:      "Gas charged for instructions.",
		}),
		halts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vm_halts_total",
			Help:      "Executions that halted.",
		}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vm_faults_total",
			Help:      "Executions that faulted, by fault kind.",
		}, []string{"kind"}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vm_invocation_depth",
			Help:      "Invocation stack depth after the last context change.",
		}),
		runGas: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vm_run_gas",
			Help:      "Gas consumed per finished execution.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 12),
		}),
	}
}

// OnStep counts one instruction and the gas it was charged.
func (c *Collector) OnStep(o op.Opcode, price int64) {
	c.steps.WithLabelValues(o.String()).Inc()
	c.gas.Add(float64(price))
}

// OnContext records the invocation depth after a load or unload.
func (c *Collector) OnContext(depth int, loaded bool) {
	c.depth.Set(float64(depth))
}

// OnHalt counts a halted execution and observes its gas.
func (c *Collector) OnHalt(gasConsumed int64) {
	c.halts.Inc()
	c.runGas.Observe(float64(gasConsumed))
}

// OnFault counts a faulted execution by kind and observes its gas.
func (c *Collector) OnFault(kind vm.FaultKind, gasConsumed int64) {
	c.faults.WithLabelValues(kind.String()).Inc()
	c.runGas.Observe(float64(gasConsumed))
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.steps.Describe(ch)
	c.gas.Describe(ch)
	c.halts.Describe(ch)
	c.faults.Describe(ch)
	c.depth.Describe(ch)
	c.runGas.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.steps.Collect(ch)
	c.gas.Collect(ch)
	c.halts.Collect(ch)
	c.faults.Collect(ch)
	c.depth.Collect(ch)
	c.runGas.Collect(ch)
}
