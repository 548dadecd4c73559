package conc

import (
	"context"

	"github.com/joshuapare/kcore/kern/sched"
	"github.com/joshuapare/kcore/kern/spinlock"
)

// Sleeplock is a long-term lock: contenders sleep on a channel instead of
// spinning, so it may be held across Yield.
type Sleeplock struct {
	lk     spinlock.Lock // guards locked and owner
	ch     Channel
	locked bool
	owner  *sched.Env
}

// NewSleeplock returns an unlocked sleeplock whose waiters park on s.
func NewSleeplock(name string, s Scheduler) *Sleeplock {
	l := &Sleeplock{}
	l.ch.Init(name, s)
	return l
}

// Name returns the diagnostic name.
func (l *Sleeplock) Name() string { return l.ch.Name() }

// Acquire blocks the calling context until it owns the lock.
func (l *Sleeplock) Acquire(ctx context.Context) {
	l.lk.Acquire()
	for l.locked {
		l.ch.Sleep(ctx, &l.lk)
	}
	l.locked = true
	l.owner = l.ch.s.Current(ctx)
	l.lk.Release()
}

// Release unlocks and wakes every waiter; one of them wins the lock. Releasing
// an unheld sleeplock panics.
func (l *Sleeplock) Release() {
	l.lk.Acquire()
	if !l.locked {
		l.lk.Release()
		panic("conc: release of unheld sleeplock " + l.Name())
	}
	l.locked = false
	l.owner = nil
	l.ch.WakeupAll()
	l.lk.Release()
}

// Holding reports whether the context running ctx owns the lock.
func (l *Sleeplock) Holding(ctx context.Context) bool {
	l.lk.Acquire()
	defer l.lk.Release()
	return l.locked && l.owner != nil && l.owner == l.ch.s.Current(ctx)
}
