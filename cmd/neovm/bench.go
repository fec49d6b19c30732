package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"golang.org/x/sync/errgroup"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/log"
	"github.com/neo-project/neo-sub032/metrics"
	"github.com/neo-project/neo-sub032/protocol/vm"
)

var ErrNondeterministic = errors.New("runs disagree")

const maxRunTime = time.Minute

// benchReport summarizes a bench invocation.
type benchReport struct {
	Runs     int64
	Over     int64
	State    string
	Gas      int64
	Elapsed  time.Duration
	P50, P90 time.Duration
	P99      time.Duration
}

// bench runs r on c.Workers concurrent goroutines, c.Iterations
// times each. Every run must end with the same summary as the
// first one.
func bench(ctx context.Context, c *config, r *runner, col *metrics.Collector) (*benchReport, error) {
	lat := metrics.NewLatency(maxRunTime)
	want, err := benchRun(ctx, r, col, nil)
	if err != nil {
		return nil, err
	}
	var first result
	if err := json.Unmarshal(want, &first); err != nil {
		return nil, err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < c.Workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < c.Iterations; i++ {
				got, err := benchRun(gctx, r, col, lat)
				if err != nil {
					return err
				}
				if !bytes.Equal(got, want) {
					return errors.WithDetailf(ErrNondeterministic, "worker %d run %d: got %s, want %s", w, i, got, want)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	runs, over := lat.Count()
	return &benchReport{
		Runs:    runs,
		Over:    over,
		State:   first.State,
		Gas:     first.GasConsumed,
		Elapsed: time.Since(start),
		P50:     lat.Quantile(50),
		P90:     lat.Quantile(90),
		P99:     lat.Quantile(99),
	}, nil
}

// benchRun executes one engine and returns its JSON summary.
func benchRun(ctx context.Context, r *runner, col *metrics.Collector, lat *metrics.Latency) ([]byte, error) {
	var opts []vm.Option
	if col != nil {
		opts = append(opts, vm.WithObserver(col))
	}
	e, h, err := r.engine(ctx, opts...)
	if err != nil {
		return nil, err
	}
	t := time.Now()
	e.Run(ctx)
	if lat != nil {
		lat.RecordSince(t)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := r.summarize(e, h)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func benchCmd(env *cmdEnv, args []string) error {
	c, args, err := env.setup("bench", args)
	if err != nil {
		return err
	}
	l, closer, err := c.logger(env.stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	prog, err := readProgram(c, args, env.stdin)
	if err != nil {
		return err
	}
	// Tracing from many goroutines would interleave lines.
	r, err := newRunner(c, l, prog, c.engineOptions(l, nil)...)
	if err != nil {
		return err
	}

	var (
		reg *prometheus.Registry
		col *metrics.Collector
	)
	if c.Metrics {
		reg = prometheus.NewRegistry()
		col = metrics.NewCollector("neovm")
		reg.MustRegister(col)
	}
	rep, err := bench(context.Background(), c, r, col)
	if err != nil {
		log.Error(l, "bench failed", err, "workers", c.Workers)
		return err
	}
	fmt.Fprintf(env.stdout, "%d runs on %d workers in %v: state %s, gas %d\n",
		rep.Runs, c.Workers, rep.Elapsed, rep.State, rep.Gas)
	fmt.Fprintf(env.stdout, "latency p50 %v p90 %v p99 %v", rep.P50, rep.P90, rep.P99)
	if rep.Over > 0 {
		fmt.Fprintf(env.stdout, " (%d runs over %v)", rep.Over, maxRunTime)
	}
	fmt.Fprintln(env.stdout)
	if reg != nil {
		return dumpMetrics(env.stdout, reg)
	}
	return nil
}

func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
