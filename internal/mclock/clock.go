// Copyright 2018 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package mclock is a thin wrapper around monotonic time, trimmed down from
// go-ethereum's common/mclock to the two things the quiescence primitive's
// background grace-period sweeper needs: a monotonic "now" and a way to wait
// for the next tick without depending on wall-clock time, so tests can run a
// simulated clock instead of sleeping.
package mclock

import "time"

// AbsTime represents absolute monotonic time in nanoseconds.
type AbsTime time.Duration

// Now returns the current absolute monotonic time.
func Now() AbsTime {
	return AbsTime(monotonicNow())
}

// Add returns t + d.
func (t AbsTime) Add(d time.Duration) AbsTime {
	return t + AbsTime(d)
}

// Sub returns t - t2 as a duration.
func (t AbsTime) Sub(t2 AbsTime) time.Duration {
	return time.Duration(t - t2)
}

// Clock interface makes it possible to replace the monotonic system clock
// with a simulated clock in epoch-sweeper tests.
type Clock interface {
	Now() AbsTime
	Sleep(time.Duration)
	NewTicker(time.Duration) Ticker
}

// Ticker is satisfied by the System clock's wrapper around *time.Ticker and
// by the simulated clock's ticker.
type Ticker interface {
	C() <-chan struct{}
	Stop()
}

// System implements Clock using the system's monotonic clock.
type System struct{}

func (System) Now() AbsTime { return Now() }

func (System) Sleep(d time.Duration) { time.Sleep(d) }

func (System) NewTicker(d time.Duration) Ticker {
	t := time.NewTicker(d)
	ch := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-t.C:
				select {
				case ch <- struct{}{}:
				default:
				}
			case <-done:
				return
			}
		}
	}()
	return &systemTicker{t: t, ch: ch, done: done}
}

type systemTicker struct {
	t    *time.Ticker
	ch   chan struct{}
	done chan struct{}
}

func (s *systemTicker) C() <-chan struct{} { return s.ch }

func (s *systemTicker) Stop() {
	s.t.Stop()
	close(s.done)
}
