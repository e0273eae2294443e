package lfht

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rcuhash/lfht/internal/bits"
)

// nextOrder returns the level index that growing (or the boundary that
// shrinking) a table currently at size would next touch: get_count_order
// of the reference implementation, offset by one so order 0 stays reserved
// for the table's single bootstrap dummy.
func nextOrder(size uint64) int {
	return bits.CeilLog2(size) + 1
}

func (t *Table) autoResize() bool { return t.cfg.Flags&FlagAutoResize != 0 }

// bootstrap populates level 0 (the lone order-0 dummy every lookup anchors
// through) and then grows synchronously up to cfg.InitSize, called once
// from New before the table is handed back to the caller.
func (t *Table) bootstrap() {
	head := newDummyNode(0)
	head.next.Store(endLink)
	t.levels[0].publish([]*Node{head})
	t.size.Store(1)

	target := t.cfg.InitSize
	t.resizeTarget.Store(target)
	if target <= 1 {
		return
	}
	t.growOrders(1, nextOrder(target))
}

// populateLevel allocates and links in the 2^(order-1) dummy nodes of the
// given level, splitting the work across worker goroutines (via
// golang.org/x/sync/errgroup) once the span is large enough to be worth
// the fan-out, mirroring partition_resize_helper.
func (t *Table) populateLevel(order int, prevSize uint64) {
	length := orderSize(order)
	nodes := make([]*Node, length)

	populate := func(start, n uint64) {
		for j := start; j < start+n; j++ {
			abs := prevSize + j
			dn := newDummyNode(bits.Reverse(abs))
			nodes[j] = dn
			t.addInternal(prevSize, dn, modeDefault)
		}
	}

	if length < 2*t.cfg.MinPartition {
		populate(0, length)
	} else {
		workers := runtime.GOMAXPROCS(0)
		if max := length / t.cfg.MinPartition; uint64(workers) > max {
			workers = int(max)
		}
		if workers < 1 {
			workers = 1
		}
		partitionLen := length / uint64(workers)
		g, _ := errgroup.WithContext(context.Background())
		for w := 0; w < workers; w++ {
			start := uint64(w) * partitionLen
			n := partitionLen
			if w == workers-1 {
				n = length - start
			}
			g.Go(func() error {
				populate(start, n)
				return nil
			})
		}
		_ = g.Wait()
	}

	t.levels[order].publish(nodes)
}

// removeLevel logically and then physically removes every dummy in the
// given level, splitting the same way populateLevel fans out.
func (t *Table) removeLevel(order int, prevSize uint64) {
	levelNodes := t.levelNodes(order)
	length := uint64(len(levelNodes))

	remove := func(start, n uint64) {
		for j := start; j < start+n; j++ {
			_ = t.delAt(prevSize, levelNodes[j])
		}
	}

	if length < 2*t.cfg.MinPartition {
		remove(0, length)
	} else {
		workers := runtime.GOMAXPROCS(0)
		if max := length / t.cfg.MinPartition; uint64(workers) > max {
			workers = int(max)
		}
		if workers < 1 {
			workers = 1
		}
		partitionLen := length / uint64(workers)
		g, _ := errgroup.WithContext(context.Background())
		for w := 0; w < workers; w++ {
			start := uint64(w) * partitionLen
			n := partitionLen
			if w == workers-1 {
				n = length - start
			}
			g.Go(func() error {
				remove(start, n)
				return nil
			})
		}
		_ = g.Wait()
	}
}

func (t *Table) levelNodes(order int) []*Node {
	ptr := t.levels[order].nodes.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// growOrders populates levels [fromOrder, toOrder), bumping the published
// size after each one, bailing early if the resize target shrinks back
// below what this level would reach or if the table is being destroyed —
// both mirror init_table's per-level checks.
func (t *Table) growOrders(fromOrder, toOrder int) {
	for order := fromOrder; order < toOrder; order++ {
		reached := uint64(1) << order
		if t.resizeTarget.Load() < reached {
			break
		}
		prevSize := uint64(1) << (order - 1)
		t.log.Debug("resize.grow", "order", order, "from", prevSize, "to", reached)
		t.populateLevel(order, prevSize)
		t.size.Store(reached)
		if t.inProgressDestroy.Load() {
			break
		}
	}
}

// shrinkOrders removes levels [newOrder, oldOrder) from the top down,
// waiting out a grace period before each level's removal starts (so no
// in-flight lookup can still be mid-traversal through it). The removed
// level's array stays in t.levels until a later grow republishes that level.
func (t *Table) shrinkOrders(newOrder, oldOrder int) {
	for order := oldOrder - 1; order >= newOrder; order-- {
		floor := uint64(1) << (order - 1)
		if t.resizeTarget.Load() > floor {
			break
		}
		t.log.Debug("resize.shrink", "order", order, "from", uint64(1)<<order, "to", floor)
		t.size.Store(floor)
		t.domain.Synchronize()
		t.removeLevel(order, floor)
		if t.inProgressDestroy.Load() {
			break
		}
	}
}

func (t *Table) resizeTargetUpdate(proposal uint64) uint64 {
	for {
		cur := t.resizeTarget.Load()
		if proposal <= cur {
			return cur
		}
		if t.resizeTarget.CompareAndSwap(cur, proposal) {
			return proposal
		}
	}
}

func (t *Table) resizeTargetUpdateCount(count uint64) {
	if count < t.cfg.MinTableSize {
		count = t.cfg.MinTableSize
	}
	t.resizeTarget.Store(count)
}

// onChainStep is the small-table resize heuristic: called while walking a
// bucket during Add, it requests a grow once the observed chain length
// crosses the configured threshold, but only while the approximate count
// is still too small for the count-based heuristic below to have kicked in.
func (t *Table) onChainStep(size uint64, chainLen uint32) {
	if !t.autoResize() {
		return
	}
	if t.counter.approx() >= uint64(1)<<t.cfg.CommitOrder {
		return
	}
	if chainLen < t.cfg.ChainLenResizeThreshold {
		return
	}
	growthOrder := bits.CeilLog2(uint64(chainLen) - uint64(t.cfg.ChainLenTarget-1))
	t.resizeLazy(size, growthOrder)
}

// afterCountChange is the large-table resize heuristic: called after every
// counted insert and delete, it reads the split counter's folded global
// approximation (which only changes when a shard folds) and grows or
// shrinks toward ChainLenTarget while that approximation sits on a
// power-of-two boundary, the same trigger condition as
// ht_count_add/ht_count_del.
func (t *Table) afterCountChange(size uint64, grew bool) {
	if !t.autoResize() {
		return
	}
	count := t.counter.approx()
	if count == 0 || !bits.IsPowerOfTwo(count) {
		return
	}
	if grew {
		if (count >> t.cfg.ChainLenResizeThreshold) < size {
			return
		}
	} else {
		if (count >> t.cfg.ChainLenResizeThreshold) >= size {
			return
		}
		floor := (uint64(1) << t.cfg.CommitOrder) * uint64(len(t.counter.shards))
		if count < floor {
			return
		}
	}
	target := count
	if t.cfg.ChainLenTarget > 1 {
		target = count >> (t.cfg.ChainLenTarget - 1)
	}
	t.resizeLazyCount(target)
}

func (t *Table) resizeLazy(size uint64, growthOrder int) {
	target := t.resizeTargetUpdate(size << uint(growthOrder))
	if t.resizeInitiated.Load() || size >= target {
		return
	}
	t.scheduleResize()
}

func (t *Table) resizeLazyCount(count uint64) {
	t.resizeTargetUpdateCount(count)
	if t.resizeInitiated.Load() {
		return
	}
	t.scheduleResize()
}

// scheduleResize defers one resize pass to the reclaimer goroutine after
// the next grace period, the same way the reference implementation hands
// resize work to a call_rcu callback instead of running it inline on the
// updater that triggered it.
func (t *Table) scheduleResize() {
	if !t.resizeInitiated.CompareAndSwap(false, true) {
		return
	}
	t.inProgressResize.Add(1)
	if t.inProgressDestroy.Load() {
		t.inProgressResize.Add(-1)
		t.resizeInitiated.Store(false)
		return
	}
	t.domain.CallAfterGrace(func() {
		t.runResize()
		t.inProgressResize.Add(-1)
	})
}

// runResizeLocked repeatedly grows or shrinks toward resizeTarget until it
// catches up with whatever the target settled on. The caller must already
// hold resizeMu.
func (t *Table) runResizeLocked() {
	t.log.Debug("resize.start", "size", t.size.Load(), "target", t.resizeTarget.Load())
	for {
		if t.inProgressDestroy.Load() {
			break
		}
		t.resizeInitiated.Store(true)
		oldSize := t.size.Load()
		newSize := t.resizeTarget.Load()
		switch {
		case oldSize < newSize:
			t.growOrders(nextOrder(oldSize), nextOrder(newSize))
		case oldSize > newSize:
			if newSize < t.cfg.MinTableSize {
				newSize = t.cfg.MinTableSize
			}
			t.shrinkOrders(nextOrder(newSize), nextOrder(oldSize))
		}
		t.resizeInitiated.Store(false)
		if t.size.Load() == t.resizeTarget.Load() {
			break
		}
	}
}

// runResize is the background/auto-resize entry point: it only runs a pass
// if it can acquire resizeMu without blocking, deferring to whatever pass
// (direct or background) already holds it.
func (t *Table) runResize() {
	if !t.resizeMu.TryLock() {
		return
	}
	defer t.resizeMu.Unlock()
	t.runResizeLocked()
}

// Resize requests the table grow or shrink to exactly newSize buckets,
// blocking on the calling goroutine until the table actually reaches
// newSize — whether via a pass this call drives itself or one already in
// progress elsewhere. newSize must be a power of two no smaller than the
// table's MinTableSize. It returns ErrClosed if the table has already been
// destroyed.
func (t *Table) Resize(newSize uint64) error {
	if !bits.IsPowerOfTwo(newSize) {
		return ErrInvalidArgument
	}
	if t.closed.Load() {
		return ErrClosed
	}
	t.resizeTargetUpdateCount(newSize)
	t.inProgressResize.Add(1)
	defer t.inProgressResize.Add(-1)

	for t.size.Load() != t.resizeTarget.Load() {
		if t.inProgressDestroy.Load() {
			return nil
		}
		if t.resizeMu.TryLock() {
			t.runResizeLocked()
			t.resizeMu.Unlock()
			continue
		}
		runtime.Gosched()
	}
	return nil
}
