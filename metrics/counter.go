// Package metrics is a small, self-contained metrics registry modeled on
// go-ethereum's metrics package: counters and registries with the same
// Inc/Dec/Snapshot/Register shape, kept here to the handful of instruments
// the split counter (component E) and the resize engine (component D)
// actually need. See metrics/prom for the Prometheus export adapter.
package metrics

import "sync/atomic"

// Counter holds an int64 value that can be incremented and decremented.
type Counter interface {
	Clear()
	Dec(int64)
	Inc(int64)
	Snapshot() CounterSnapshot
}

// CounterSnapshot is a read-only copy of a Counter's value at one instant.
type CounterSnapshot interface {
	Count() int64
}

// NewCounter constructs a new standard Counter.
func NewCounter() Counter {
	return &standardCounter{}
}

type standardCounter struct {
	count atomic.Int64
}

func (c *standardCounter) Clear()        { c.count.Store(0) }
func (c *standardCounter) Dec(n int64)   { c.count.Add(-n) }
func (c *standardCounter) Inc(n int64)   { c.count.Add(n) }
func (c *standardCounter) Snapshot() CounterSnapshot {
	return counterSnapshot(c.count.Load())
}

type counterSnapshot int64

func (c counterSnapshot) Count() int64 { return int64(c) }
