// Package spinlock provides the short-critical-section mutual exclusion
// primitive of the kernel core.
//
// A Lock spins with a compare-and-swap, yielding the processor between
// attempts. It is meant for critical sections of a few instructions, such as
// a channel's wait queue. Holding a Lock across a blocking call stalls every
// other contender.
package spinlock

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// Lock is a test-and-set spinlock. The zero value is an unlocked lock.
type Lock struct {
	name   string
	locked atomic.Uint32
	spins  atomic.Uint64
}

// New returns an unlocked lock with a diagnostic name.
func New(name string) *Lock {
	return &Lock{name: name}
}

// Name returns the lock's diagnostic name.
func (l *Lock) Name() string {
	if l.name == "" {
		return "spinlock"
	}
	return l.name
}

// Acquire spins until the lock is held by the caller.
func (l *Lock) Acquire() {
	for !l.locked.CompareAndSwap(0, 1) {
		l.spins.Add(1)
		for l.locked.Load() != 0 {
			runtime.Gosched()
		}
	}
}

// TryAcquire takes the lock if it is free and reports whether it did.
func (l *Lock) TryAcquire() bool {
	return l.locked.CompareAndSwap(0, 1)
}

// Release unlocks the lock. Releasing a lock that is not held is a fatal
// misuse and panics.
func (l *Lock) Release() {
	if !l.locked.CompareAndSwap(1, 0) {
		panic(fmt.Sprintf("spinlock: release of unheld lock %q", l.Name()))
	}
}

// Holding reports whether the lock is currently held. Locks do not record an
// owner, so this only answers "by anyone".
func (l *Lock) Holding() bool {
	return l.locked.Load() != 0
}

// Spins returns how many times Acquire found the lock taken.
func (l *Lock) Spins() uint64 {
	return l.spins.Load()
}

// Lock implements sync.Locker.
func (l *Lock) Lock() { l.Acquire() }

// Unlock implements sync.Locker.
func (l *Lock) Unlock() { l.Release() }
