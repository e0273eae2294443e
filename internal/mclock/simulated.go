package mclock

import (
	"sync"
	"time"
)

// Simulated implements Clock for deterministic tests of the grace-period
// sweeper: time only advances when Run is called, so tests never sleep.
type Simulated struct {
	mu      sync.Mutex
	now     AbsTime
	tickers []*simTicker
}

func (s *Simulated) Now() AbsTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Simulated) Sleep(d time.Duration) {
	done := make(chan struct{})
	t := s.NewTicker(d)
	go func() {
		<-t.C()
		close(done)
	}()
	<-done
	t.Stop()
}

func (s *Simulated) NewTicker(d time.Duration) Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &simTicker{
		clock: s,
		period: d,
		next:  s.now + AbsTime(d),
		ch:    make(chan struct{}, 1),
	}
	s.tickers = append(s.tickers, t)
	return t
}

// Run advances the simulated clock by d, firing any ticker whose deadline
// has elapsed (possibly more than once, catching it up to the new time).
func (s *Simulated) Run(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += AbsTime(d)
	for _, t := range s.tickers {
		if t.stopped {
			continue
		}
		for t.next <= s.now {
			select {
			case t.ch <- struct{}{}:
			default:
			}
			t.next += AbsTime(t.period)
		}
	}
}

// ActiveTickers reports the number of tickers that have not been stopped.
func (s *Simulated) ActiveTickers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type simTicker struct {
	clock   *Simulated
	period  time.Duration
	next    AbsTime
	ch      chan struct{}
	stopped bool
}

func (t *simTicker) C() <-chan struct{} { return t.ch }

func (t *simTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}
