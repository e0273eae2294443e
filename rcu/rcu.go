// Package rcu implements the quiescence primitive that component B of the
// split-ordered hash table depends on: nestable read critical sections, a
// blocking Synchronize that waits out every critical section that was open
// when it was called, and a deferred-callback queue that runs closures once
// a grace period has elapsed.
//
// The grace-period detection strategy is the double-flip parity scheme used
// by userspace-rcu's QSBR backend (see urcu.c's synchronize_rcu): a reader
// publishes the domain's current parity bit when it enters an outermost
// read critical section; Synchronize flips the parity twice, waiting after
// each flip for every reader still reporting the retiring parity to leave.
// Any other correct grace-period technique (epoch counting, a memory-barrier
// broadcast) would satisfy the same contract; this file picks one.
package rcu

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rcuhash/lfht/internal/mclock"
)

// Reader is a registered participant's handle. A goroutine that wants to
// call ReadLock/ReadUnlock must hold one, obtained from RegisterThread and
// released with UnregisterThread. Readers are not safe for concurrent use
// by more than one goroutine at a time — exactly one goroutine "is" a
// registered thread, mirroring the reference implementation's per-pthread
// registry.
type Reader struct {
	ID uuid.UUID

	domain *Domain
	// state packs (nest<<1 | parity) into one word so that ReadLock's
	// read-modify-write is a single atomic store, never torn.
	state atomic.Uint64
	// savedNest holds the critical-section depth across an
	// offline/online bracket; only ever touched by the owning goroutine.
	savedNest uint64
}

// Domain is one hash table's (or any other client's) quiescence domain. A
// Domain owns the reclaimer goroutine that drains CallAfterGrace callbacks.
type Domain struct {
	parity atomic.Uint32

	mu      sync.Mutex
	readers []*Reader

	pendingMu sync.Mutex
	pending   []func()
	wake      chan struct{}

	clock    mclock.Clock
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup

	// BackoffBase / BackoffMax tune Synchronize's spin-then-sleep wait
	// loop; exported so tests can shrink them.
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// New creates a Domain and starts its background reclaimer goroutine. The
// clock is used only to pace the reclaimer's idle wake-ups; pass nil for the
// system clock.
func New(clock mclock.Clock) *Domain {
	if clock == nil {
		clock = mclock.System{}
	}
	d := &Domain{
		clock:       clock,
		wake:        make(chan struct{}, 1),
		quit:        make(chan struct{}),
		BackoffBase: time.Microsecond,
		BackoffMax:  time.Millisecond,
	}
	d.wg.Add(1)
	go d.reclaimLoop()
	return d
}

// RegisterThread registers the calling goroutine as a reader and returns its
// handle. It must be called before any ReadLock/ReadUnlock from that
// goroutine, and matched with UnregisterThread before the goroutine exits.
func (d *Domain) RegisterThread() *Reader {
	r := &Reader{ID: uuid.New(), domain: d}
	d.mu.Lock()
	d.readers = append(d.readers, r)
	d.mu.Unlock()
	return r
}

// UnregisterThread removes r from the domain. r must not be in an open read
// critical section.
func (d *Domain) UnregisterThread(r *Reader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, x := range d.readers {
		if x == r {
			last := len(d.readers) - 1
			d.readers[i] = d.readers[last]
			d.readers[last] = nil
			d.readers = d.readers[:last]
			return
		}
	}
}

const nestShift = 1

func packState(nest uint64, parity uint32) uint64 {
	return nest<<nestShift | uint64(parity&1)
}

func unpackNest(state uint64) uint64 { return state >> nestShift }
func unpackParity(state uint64) uint32 { return uint32(state & 1) }

// ReadLock enters (or re-enters, if already inside one) a read critical
// section. It never blocks.
func (r *Reader) ReadLock() {
	old := r.state.Load()
	nest := unpackNest(old)
	if nest == 0 {
		p := r.domain.parity.Load()
		r.state.Store(packState(1, p))
		return
	}
	r.state.Store(packState(nest+1, unpackParity(old)))
}

// ReadUnlock leaves one level of read critical section.
func (r *Reader) ReadUnlock() {
	old := r.state.Load()
	nest := unpackNest(old)
	if nest <= 1 {
		r.state.Store(0)
		return
	}
	r.state.Store(packState(nest-1, unpackParity(old)))
}

// Offline declares the reader quiescent, e.g. just before blocking on a
// mutex that may be held across a Synchronize call. It must be paired with
// Online before the reader's next ReadLock/ReadUnlock.
func (r *Reader) Offline() {
	r.savedNest = unpackNest(r.state.Load())
	r.state.Store(0)
}

// Online reverses a prior Offline, restoring the reader's nesting depth
// under the domain's current parity.
func (r *Reader) Online() {
	if r.savedNest == 0 {
		return
	}
	p := r.domain.parity.Load()
	r.state.Store(packState(r.savedNest, p))
	r.savedNest = 0
}

// waitForQuiescent blocks until no registered reader reports the given
// retiring parity, using an exponential spin/sleep backoff (the portable
// analogue of the reference implementation's KICK_READER_LOOPS busy loop).
func (d *Domain) waitForQuiescent(retiring uint32) {
	d.mu.Lock()
	readers := make([]*Reader, len(d.readers))
	copy(readers, d.readers)
	d.mu.Unlock()

	for _, r := range readers {
		backoff := d.BackoffBase
		for {
			s := r.state.Load()
			if unpackNest(s) == 0 || unpackParity(s) != retiring {
				break
			}
			runtime.Gosched()
			if backoff > 0 {
				time.Sleep(backoff)
				backoff *= 2
				if backoff > d.BackoffMax {
					backoff = d.BackoffMax
				}
			}
		}
	}
}

// Synchronize blocks until every read critical section that was open when
// it was called has ended. It must not be called from within a read
// critical section of the calling goroutine (that would deadlock, exactly
// as in the reference implementation).
func (d *Domain) Synchronize() {
	p0 := d.parity.Load()
	d.parity.Store(p0 ^ 1)
	d.waitForQuiescent(p0)

	p1 := d.parity.Load()
	d.parity.Store(p1 ^ 1)
	d.waitForQuiescent(p1)
}

// CallAfterGrace enqueues cb to run on the reclaimer goroutine after a
// grace period elapses. cb runs outside any caller's critical section.
func (d *Domain) CallAfterGrace(cb func()) {
	d.pendingMu.Lock()
	d.pending = append(d.pending, cb)
	d.pendingMu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Domain) reclaimLoop() {
	defer d.wg.Done()
	ticker := d.clock.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-d.quit:
			d.drainOnce()
			return
		case <-d.wake:
		case <-ticker.C():
		}
		d.drainOnce()
	}
}

func (d *Domain) drainOnce() {
	d.pendingMu.Lock()
	if len(d.pending) == 0 {
		d.pendingMu.Unlock()
		return
	}
	batch := d.pending
	d.pending = nil
	d.pendingMu.Unlock()

	d.Synchronize()
	for _, cb := range batch {
		cb()
	}
}

// Close stops the reclaimer goroutine after running any callbacks still
// pending. Running them first waits out a grace period, so while callbacks
// are pending Close blocks until every read critical section open at that
// point has ended; with none pending it does not wait for readers.
func (d *Domain) Close() {
	d.quitOnce.Do(func() { close(d.quit) })
	d.wg.Wait()
}
