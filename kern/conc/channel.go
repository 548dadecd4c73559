// Package conc holds the kernel's blocking primitives: wait channels and the
// sleeping lock built on them.
//
// A Channel is a named FIFO of execution contexts. Sleep parks the caller on
// it, releasing a caller-held lock; WakeupOne and WakeupAll move parked
// contexts back to the scheduler's ready set. Every channel queue is guarded by
// a single process-wide spinlock (QueueLock), which WakeupOne and WakeupAll
// acquire themselves.
//
// Typical use, with lk guarding cond:
//
//	lk.Lock()
//	for !cond {
//	    ch.Sleep(ctx, lk)
//	}
//	... // cond holds, lk held
//	lk.Unlock()
//
// and on the other side:
//
//	lk.Lock()
//	cond = true
//	ch.WakeupOne()
//	lk.Unlock()
package conc

import (
	"context"
	"sync"

	"github.com/joshuapare/kcore/kern/sched"
	"github.com/joshuapare/kcore/kern/spinlock"
)

// Scheduler is the part of the scheduler a Channel drives.
type Scheduler interface {
	// Current returns the execution context running ctx.
	Current(ctx context.Context) *sched.Env

	// Yield gives up the processing unit until the caller is scheduled again.
	Yield(ctx context.Context)

	// MarkRunnable puts a context into the ready set.
	MarkRunnable(e *sched.Env)
}

var _ Scheduler = (*sched.Scheduler)(nil)

// queueLock guards the wait queue of every Channel. It is ready from package
// initialization on and never torn down.
var queueLock = spinlock.New("channel queues")

// QueueLock returns the process-wide lock guarding all channel queues.
func QueueLock() *spinlock.Lock {
	return queueLock
}

// Channel is a named wait queue.
type Channel struct {
	name  string
	queue sched.Queue
	s     Scheduler

	// Guarded by queueLock.
	sleeps  int
	wakeups int
}

// NewChannel returns an empty channel that parks contexts of s.
func NewChannel(name string, s Scheduler) *Channel {
	c := &Channel{}
	c.Init(name, s)
	return c
}

// Init (re)initializes c with an empty queue. Contexts still queued on c are
// dropped and will never wake.
func (c *Channel) Init(name string, s Scheduler) {
	queueLock.Acquire()
	c.name = name
	c.queue = sched.Queue{}
	c.s = s
	c.sleeps, c.wakeups = 0, 0
	queueLock.Release()
}

// Name returns the diagnostic name.
func (c *Channel) Name() string { return c.name }

// Len returns the number of parked contexts.
func (c *Channel) Len() int {
	queueLock.Acquire()
	defer queueLock.Release()
	return c.queue.Len()
}

// Counts returns how many times contexts slept on c and how many were woken.
func (c *Channel) Counts() (sleeps, wakeups int) {
	queueLock.Acquire()
	defer queueLock.Release()
	return c.sleeps, c.wakeups
}

// Sleep atomically releases lk and parks the calling context on c, then
// reacquires lk once woken. The caller must hold lk, and lk must not be
// QueueLock.
//
// The queue lock is taken before lk is released: a waker that needs lk to
// change the condition cannot reach WakeupOne or WakeupAll until the caller is
// on the queue and marked Blocked. The queue lock is dropped before yielding.
func (c *Channel) Sleep(ctx context.Context, lk sync.Locker) {
	if l, ok := lk.(*spinlock.Lock); ok && l == queueLock {
		panic("conc: sleep with the queue lock as the condition lock")
	}
	e := c.s.Current(ctx)
	if e == nil {
		panic("conc: sleep outside an execution context")
	}

	queueLock.Acquire()
	lk.Unlock()
	c.queue.Enqueue(e)
	e.SetStatus(sched.Blocked)
	c.sleeps++
	queueLock.Release()

	c.s.Yield(ctx)

	lk.Lock()
}

// WakeupOne moves the longest-waiting context on c, if any, to the ready set.
func (c *Channel) WakeupOne() {
	queueLock.Acquire()
	defer queueLock.Release()

	if e := c.queue.Dequeue(); e != nil {
		c.wake(e)
	}
}

// WakeupAll moves every context on c to the ready set in the order they went
// to sleep.
func (c *Channel) WakeupAll() {
	queueLock.Acquire()
	defer queueLock.Release()

	for e := c.queue.Dequeue(); e != nil; e = c.queue.Dequeue() {
		c.wake(e)
	}
}

// wake hands a dequeued context to the scheduler. Caller holds queueLock.
func (c *Channel) wake(e *sched.Env) {
	e.SetStatus(sched.Ready)
	c.wakeups++
	c.s.MarkRunnable(e)
}
