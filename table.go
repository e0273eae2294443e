package lfht

import (
	"runtime"
	"sync/atomic"

	"github.com/rcuhash/lfht/internal/bits"
	"github.com/rcuhash/lfht/internal/syncx"
	"github.com/rcuhash/lfht/log"
	"github.com/rcuhash/lfht/metrics"
	"github.com/rcuhash/lfht/rcu"
)

// HashFunc hashes key under the table's configured seed. It must be
// deterministic for equal keys and should spread its output over the full
// uint64 range; a poor hash only costs chain length, never correctness.
type HashFunc func(key []byte, seed uint64) uint64

// EqualFunc reports whether two keys are equal. It is used only to break
// ties between nodes whose hashes collide.
type EqualFunc func(a, b []byte) bool

// Table is a lock-free, resizable, concurrent hash table. The zero value is
// not usable; construct one with New.
type Table struct {
	cfg   Config
	hash  HashFunc
	equal EqualFunc

	levels [maxOrder + 1]level

	size    atomic.Uint64
	counter *splitCounter

	resizeTarget      atomic.Uint64
	resizeInitiated   atomic.Bool
	inProgressResize  atomic.Int32
	inProgressDestroy atomic.Bool
	resizeMu          *syncx.ClosableMutex

	closed atomic.Bool

	domain    *rcu.Domain
	ownDomain bool

	log log.Logger

	sizeGauge  metrics.Gauge
	countGauge metrics.Gauge
}

// New constructs a Table with the given hash and equality functions. If
// cfg.Domain is nil, the table creates and owns its own quiescence domain
// (closed by Destroy); share one Domain across tables that should drain
// their reclaimers together.
func New(hash HashFunc, equal EqualFunc, cfg Config) (*Table, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	t := &Table{
		cfg:      cfg,
		hash:     hash,
		equal:    equal,
		counter:  newSplitCounter(cfg.CounterShards, cfg.CommitOrder),
		resizeMu: syncx.NewClosableMutex(),
		log:      cfg.Logger,
	}

	if cfg.Domain != nil {
		t.domain = cfg.Domain
	} else {
		t.domain = rcu.New(cfg.Clock)
		t.ownDomain = true
	}

	if cfg.Flags&FlagAccounting != 0 && cfg.Registry != nil {
		t.sizeGauge = metrics.NewGauge()
		t.countGauge = metrics.NewGauge()
		_ = cfg.Registry.Register("size", t.sizeGauge)
		_ = cfg.Registry.Register("count", t.countGauge)
	}

	t.bootstrap()
	t.publishGauges()
	t.log.Info("table created", "init_size", cfg.InitSize)
	return t, nil
}

func (t *Table) publishGauges() {
	if t.sizeGauge != nil {
		t.sizeGauge.Update(int64(t.size.Load()))
	}
	if t.countGauge != nil {
		t.countGauge.Update(t.counter.exact())
	}
}

// NewNode allocates a Node carrying key and value, ready to pass to Add,
// AddUnique or AddReplace. Its reverse hash is computed from the table's
// configured hash function and seed, so a Node must only ever be added to
// the Table that created it.
func (t *Table) NewNode(key []byte, value any) *Node {
	h := t.hash(key, t.cfg.HashSeed)
	return newUserNode(key, value, bits.Reverse(h))
}

// Add inserts node, allowing duplicate keys, and returns it. It returns nil
// without inserting if the table has already been destroyed.
func (t *Table) Add(node *Node) *Node {
	if t.closed.Load() {
		return nil
	}
	size := t.size.Load()
	res := t.addInternal(size, node, modeDefault)
	t.counter.add()
	t.afterCountChange(size, true)
	t.publishGauges()
	return res.inserted
}

// AddUnique inserts node if no live node with an equal key already exists,
// returning (node, true); otherwise it returns the existing node unchanged
// and false. It returns (nil, false) if the table has already been destroyed.
func (t *Table) AddUnique(node *Node) (*Node, bool) {
	if t.closed.Load() {
		return nil, false
	}
	size := t.size.Load()
	res := t.addInternal(size, node, modeUnique)
	if res.existing != nil {
		return res.existing, false
	}
	t.counter.add()
	t.afterCountChange(size, true)
	t.publishGauges()
	return res.inserted, true
}

// AddReplace inserts node, atomically replacing any live node with an equal
// key. It returns the replaced node, or nil if none existed or the table has
// already been destroyed.
func (t *Table) AddReplace(node *Node) *Node {
	if t.closed.Load() {
		return nil
	}
	size := t.size.Load()
	res := t.addInternal(size, node, modeReplace)
	if res.existing == nil {
		t.counter.add()
		t.afterCountChange(size, true)
	}
	t.publishGauges()
	return res.existing
}

// Replace atomically substitutes newNode for the node old refers to. It
// returns ErrNotFound if old has already been removed by a concurrent
// caller, or ErrClosed if the table has already been destroyed.
func (t *Table) Replace(old Iterator, newNode *Node) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if old.node == nil {
		return ErrNotFound
	}
	size := t.size.Load()
	for {
		oldNext := old.node.next.Load()
		if oldNext.removed {
			return ErrNotFound
		}
		if t.replaceAt(size, old.node, oldNext, newNode) {
			t.publishGauges()
			return nil
		}
	}
}

// Del removes the node it refers to. It returns ErrNotFound if the node has
// already been removed by a concurrent caller, or ErrClosed if the table
// has already been destroyed.
func (t *Table) Del(it Iterator) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if it.node == nil {
		return ErrNotFound
	}
	size := t.size.Load()
	if err := t.delAt(size, it.node); err != nil {
		return err
	}
	t.counter.del()
	t.afterCountChange(size, false)
	t.publishGauges()
	return nil
}

// Len returns a fast, non-authoritative estimate of the live node count.
// Use CountNodes for an exact answer.
func (t *Table) Len() int64 { return t.counter.exact() }

// Size returns the table's current bucket count.
func (t *Table) Size() uint64 { return t.size.Load() }

// NodeCounts is the result of a full CountNodes walk: the split counter's
// approximation sampled both before and after the walk, alongside the exact
// number of live nodes and the number of logically-removed nodes the walk
// found still physically linked (pending a bucket's next gc), mirroring
// cds_lfht_count_nodes's four outputs.
type NodeCounts struct {
	Approx      int64
	Exact       int64
	Removed     int64
	ApproxAfter int64
}

// CountNodes walks the entire table and returns an exact node count
// alongside the split counter's before/after approximation. Unlike Len, it
// is linear in the table's population and observes a single consistent read
// critical section throughout the walk. It returns a zero NodeCounts if the
// table has already been destroyed.
func (t *Table) CountNodes() NodeCounts {
	if t.closed.Load() {
		return NodeCounts{}
	}

	r := t.domain.RegisterThread()
	defer t.domain.UnregisterThread(r)
	t.log.Trace("count_nodes.begin", "reader", r.ID)
	r.ReadLock()
	defer r.ReadUnlock()

	counts := NodeCounts{Approx: t.counter.exact()}

	cur := t.levels[0].at(0).next.Load()
	for {
		n := cur.node
		if n == nil {
			break
		}
		next := n.next.Load()
		switch {
		case next.removed && !n.dummy:
			counts.Removed++
		case !next.removed && !n.dummy:
			counts.Exact++
		}
		cur = next
	}

	counts.ApproxAfter = t.counter.exact()
	return counts
}

// Destroy releases the table's resources. It returns ErrNotEmpty if live
// nodes remain, so callers don't silently leak whatever those nodes were
// holding. Destroy waits for any in-flight resize to finish before
// closing the resize mutex and, if the table owns its quiescence domain,
// the domain's reclaimer goroutine. After Destroy returns successfully,
// Lookup, Add, AddUnique, AddReplace, Replace, Del, CountNodes and Resize
// become no-ops returning ErrClosed (or the equivalent zero/not-found value
// for operations that don't return error). First, Next, NextDuplicate,
// NewNode, Len and Size do not check for a destroyed table.
func (t *Table) Destroy() error {
	if t.CountNodes().Exact != 0 {
		return ErrNotEmpty
	}
	t.closed.Store(true)
	t.inProgressDestroy.Store(true)
	for t.inProgressResize.Load() != 0 {
		runtime.Gosched()
	}
	t.resizeMu.Close()
	if t.ownDomain {
		t.domain.Close()
	}
	t.log.Info("table destroyed")
	return nil
}
