package lfht

import (
	"sync/atomic"

	"github.com/rcuhash/lfht/internal/bits"
)

// maxOrder bounds the level array at 2^maxOrder buckets, comfortably beyond
// any table this process will actually grow to; it just sizes the fixed
// levels array so growth never needs to reallocate it.
const maxOrder = 50

// level is one row of the bucket index: 2^(order-1) dummy nodes (or the
// single order-0/order-1 dummy), published atomically once fully populated
// so concurrent lookups at a smaller size never observe a partial level.
type level struct {
	nodes atomic.Pointer[[]*Node]
}

func (lv *level) publish(nodes []*Node) { lv.nodes.Store(&nodes) }

func (lv *level) at(pos uint64) *Node {
	n := lv.nodes.Load()
	if n == nil {
		return nil
	}
	return (*n)[pos]
}

// orderSize returns the number of dummy slots level `order` holds: 1 for
// order 0 and order 1, doubling thereafter — the same progression as the
// reference implementation's per-order chunk sizes.
func orderSize(order int) uint64 {
	if order <= 1 {
		return 1
	}
	return uint64(1) << (order - 1)
}

// bucketFor locates the anchor dummy for hash under a table of the given
// size, by splitting hash&(size-1) into an (order, position) pair the way
// lookup_bucket does in the reference implementation.
func (t *Table) bucketFor(size, hash uint64) *Node {
	idx := hash & (size - 1)
	order := bits.MSBIndex(idx)
	var pos uint64
	if order > 0 {
		pos = idx - (uint64(1) << (order - 1))
	}
	return t.levels[order].at(pos)
}
