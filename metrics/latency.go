package metrics

import (
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
)

// Latency records durations in a histogram with three
// significant figures.
type Latency struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
	max  time.Duration
	over int64
}

// NewLatency returns a Latency tracking durations up to max.
// Longer durations are counted but not recorded.
func NewLatency(max time.Duration) *Latency {
	return &Latency{
		hist: hdrhistogram.New(0, int64(max), 3),
		max:  max,
	}
}

// Record records d.
func (l *Latency) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d > l.max || l.hist.RecordValue(int64(d)) != nil {
		l.over++
	}
}

// RecordSince records the time elapsed since t.
func (l *Latency) RecordSince(t time.Time) {
	l.Record(time.Since(t))
}

// Quantile returns the duration at quantile q, 0 to 100.
func (l *Latency) Quantile(q float64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Duration(l.hist.ValueAtQuantile(q))
}

// Count returns the number of recorded durations and the number
// that exceeded the maximum.
func (l *Latency) Count() (recorded, over int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hist.TotalCount(), l.over
}
