package lfht

import (
	"sync/atomic"
	"unsafe"
)

// shardCounter is one shard of the approximate node-count estimator: adds
// and deletes land on whichever shard the calling goroutine happens to hash
// to, so no two unrelated writers contend on the same cache line the way a
// single global counter would.
type shardCounter struct {
	unfused atomic.Int64
	_       [56]byte // pad to a cache line; false sharing defeats the point of sharding
}

// splitCounter is the table's approximate live-node count: cheap to update
// from any goroutine, folded into a single atomic every commitStep
// operations per shard so onChainStep and afterCountChange can read it without summing shards on
// every call. Table.CountNodes samples it before and after its own walk for
// the approximation pair, rather than trusting it for the exact count.
type splitCounter struct {
	shards     []shardCounter
	global     atomic.Int64
	commitStep int64
}

func newSplitCounter(shards int, commitOrder uint) *splitCounter {
	if shards < 1 {
		shards = 1
	}
	return &splitCounter{
		shards:     make([]shardCounter, shards),
		commitStep: int64(1) << commitOrder,
	}
}

// shardIndex picks a shard by hashing the address of a stack-local value —
// it differs across goroutines' call frames without needing a goroutine ID
// or per-P locality, and costs nothing to compute.
func shardIndex(n int) int {
	var x int
	return int((uintptr(unsafe.Pointer(&x)) >> 6) % uintptr(n))
}

func (c *splitCounter) bump(n int64) {
	s := &c.shards[shardIndex(len(c.shards))]
	since := s.unfused.Add(n)
	if since >= c.commitStep || since <= -c.commitStep {
		s.unfused.Add(-since)
		c.global.Add(since)
	}
}

func (c *splitCounter) add() { c.bump(1) }
func (c *splitCounter) del() { c.bump(-1) }

// approx returns the approximate live-node count, folded shards only; it
// can lag the true count by up to commitStep per shard and is meant only to
// drive resize heuristics, never CountNodes.
func (c *splitCounter) approx() uint64 {
	v := c.global.Load()
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// exact sums every shard's delta plus its not-yet-folded remainder — still
// an approximation in the presence of concurrent writers, but tighter than
// approx; used by Table.Len as a fast, non-authoritative estimate.
func (c *splitCounter) exact() int64 {
	total := c.global.Load()
	for i := range c.shards {
		total += c.shards[i].unfused.Load()
	}
	if total < 0 {
		return 0
	}
	return total
}
