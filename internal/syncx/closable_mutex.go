// Copyright 2021 The go-ethereum Authors
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

// Package syncx contains exotic synchronization primitives not offered by
// the standard library's sync package.
package syncx

// ClosableMutex is a mutex that can be permanently closed. Once closed,
// every subsequent lock attempt fails instead of blocking. The resize engine
// (component D) uses one as its resize mutex: Destroy closes it once
// in-flight resizes have finished, so no further grow/shrink can start.
type ClosableMutex struct {
	ch     chan struct{}
	closed chan struct{}
}

// NewClosableMutex creates an unlocked, open ClosableMutex.
func NewClosableMutex() *ClosableMutex {
	return &ClosableMutex{
		ch:     make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// TryLock attempts to lock the mutex, returning false immediately if it is
// already held or has been closed.
func (cm *ClosableMutex) TryLock() bool {
	select {
	case <-cm.closed:
		return false
	default:
	}
	select {
	case cm.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// MustLock blocks until the mutex is acquired, panicking if it is already
// closed or is closed while waiting.
func (cm *ClosableMutex) MustLock() {
	select {
	case <-cm.closed:
		panic("syncx: MustLock of closed ClosableMutex")
	default:
	}
	select {
	case <-cm.closed:
		panic("syncx: MustLock of closed ClosableMutex")
	case cm.ch <- struct{}{}:
	}
}

// Unlock releases the mutex. It panics if the mutex is not held.
func (cm *ClosableMutex) Unlock() {
	select {
	case <-cm.ch:
	default:
		panic("syncx: Unlock of unlocked ClosableMutex")
	}
}

// Close closes the mutex, causing all future lock attempts to fail. It
// panics if the mutex is already closed.
func (cm *ClosableMutex) Close() {
	select {
	case <-cm.closed:
		panic("syncx: Close of already-closed ClosableMutex")
	default:
		close(cm.closed)
	}
}
