package rcu

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSynchronizeWaitsForOpenCriticalSection(t *testing.T) {
	d := New(nil)
	defer d.Close()

	r := d.RegisterThread()
	defer d.UnregisterThread(r)

	r.ReadLock()
	var syncReturned atomic.Bool
	done := make(chan struct{})
	go func() {
		d.Synchronize()
		syncReturned.Store(true)
		close(done)
	}()

	// Give Synchronize a chance to run; it must not return while the
	// critical section above is still open.
	time.Sleep(20 * time.Millisecond)
	require.False(t, syncReturned.Load(), "Synchronize returned while a reader was still in its critical section")

	r.ReadUnlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Synchronize did not return after the critical section ended")
	}
}

func TestReadLockNests(t *testing.T) {
	d := New(nil)
	defer d.Close()
	r := d.RegisterThread()
	defer d.UnregisterThread(r)

	r.ReadLock()
	r.ReadLock()
	r.ReadUnlock()
	require.NotZero(t, unpackNest(r.state.Load()), "reader should still be active after one of two nested unlocks")
	r.ReadUnlock()
	require.Zero(t, unpackNest(r.state.Load()))
}

func TestOfflineExemptsFromSynchronize(t *testing.T) {
	d := New(nil)
	defer d.Close()
	r := d.RegisterThread()
	defer d.UnregisterThread(r)

	r.ReadLock()
	r.Offline()

	done := make(chan struct{})
	go func() {
		d.Synchronize()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Synchronize should not wait on an offline reader")
	}

	r.Online()
	r.ReadUnlock()
}

func TestCallAfterGraceRunsAfterGracePeriod(t *testing.T) {
	d := New(nil)
	defer d.Close()

	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	d.CallAfterGrace(func() {
		ran.Store(true)
		wg.Done()
	})

	waitOrFail(t, wg.Wait)
	require.True(t, ran.Load())
}

func TestConcurrentReadersDoNotBlockEachOther(t *testing.T) {
	d := New(nil)
	defer d.Close()

	const n = 16
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := d.RegisterThread()
			defer d.UnregisterThread(r)
			r.ReadLock()
			started.Done()
			<-release
			r.ReadUnlock()
		}()
	}
	waitOrFail(t, started.Wait)
	close(release)
	waitOrFail(t, wg.Wait)
}

func waitOrFail(t *testing.T, wait func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting")
	}
}
