package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-sub032/protocol/vm"
)

func run(t *testing.T, c *Collector, src string) {
	t.Helper()
	prog, err := vm.Assemble(src)
	require.NoError(t, err)
	e := vm.NewEngine(vm.WithObserver(c))
	_, err = e.LoadScript(prog)
	require.NoError(t, err)
	e.Run(context.Background())
}

func TestCollector(t *testing.T) {
	c := NewCollector("test")
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	run(t, c, "ABORT")
	run(t, c, "PUSH1 PUSH0 DIV")
	run(t, c, "PUSH1 PUSH2 ADD")

	require.Equal(t, float64(2), promtest.ToFloat64(c.steps.WithLabelValues("PUSH1")))
	require.Equal(t, float64(1), promtest.ToFloat64(c.steps.WithLabelValues("ADD")))
	require.Equal(t, float64(1), promtest.ToFloat64(c.halts))
	require.Equal(t, float64(1), promtest.ToFloat64(c.faults.WithLabelValues(vm.RuntimeFault.String())))
	require.Equal(t, float64(1), promtest.ToFloat64(c.faults.WithLabelValues(vm.Abort.String())))
	require.Equal(t, float64(0), promtest.ToFloat64(c.depth))

	n, err := promtest.GatherAndCount(reg, "test_vm_run_gas")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestLatency(t *testing.T) {
	l := NewLatency(time.Second)
	for i := 1; i <= 100; i++ {
		l.Record(time.Duration(i) * time.Millisecond)
	}
	l.Record(2 * time.Second)

	recorded, over := l.Count()
	require.Equal(t, int64(100), recorded)
	require.Equal(t, int64(1), over)
	p50 := l.Quantile(50)
	require.InDelta(t, float64(50*time.Millisecond), float64(p50), float64(time.Millisecond))
}

func BenchmarkRecordSince(b *testing.B) {
	l := NewLatency(time.Minute)
	t := time.Now()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.RecordSince(t)
	}
}
