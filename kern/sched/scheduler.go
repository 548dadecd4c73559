// Package sched simulates the scheduler the kernel's wait channels plug into.
//
// Each execution context (Env) is a goroutine that runs only while it owns one
// of the scheduler's processing units. A context gives its unit up by calling
// Yield; it gets one back when the scheduler picks it from the FIFO ready set.
// The ready set is guarded by a spinlock, like every other kernel queue.
//
//	s := sched.New(2)
//	s.Spawn(ctx, "worker", func(ctx context.Context) {
//	    // runs on a processing unit
//	    s.Yield(ctx) // let someone else run
//	})
//	err := s.Wait(ctx)
package sched

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/joshuapare/kcore/internal/logger"
	"github.com/joshuapare/kcore/kern/spinlock"
)

// Stats holds scheduler counters.
type Stats struct {
	Spawned    int // contexts created
	Exited     int // contexts whose function returned
	Dispatches int // times a context was given a processing unit
	Yields     int // times a context gave one up
	Wakeups    int // MarkRunnable calls that moved a context to the ready set
}

// Scheduler runs execution contexts on a fixed number of processing units.
type Scheduler struct {
	lk    *spinlock.Lock
	ready Queue
	idle  int
	cpus  int
	envs  []*Env
	stats Stats

	wg  sync.WaitGroup
	log zerolog.Logger
}

// New returns a scheduler with cpus processing units (at least one).
func New(cpus int) *Scheduler {
	if cpus < 1 {
		cpus = 1
	}
	return &Scheduler{
		lk:   spinlock.New("sched"),
		idle: cpus,
		cpus: cpus,
		log:  logger.Component("sched"),
	}
}

// CPUs returns the number of processing units.
func (s *Scheduler) CPUs() int { return s.cpus }

// Spawn creates a context running fn and makes it runnable. fn receives a
// context carrying the new Env.
func (s *Scheduler) Spawn(ctx context.Context, name string, fn func(ctx context.Context)) *Env {
	s.lk.Acquire()
	e := newEnv(len(s.envs)+1, name, s)
	s.envs = append(s.envs, e)
	s.stats.Spawned++
	s.wg.Add(1)
	s.lk.Release()

	go func() {
		<-e.resume
		fn(WithEnv(ctx, e))
		s.exit(e)
	}()

	s.MarkRunnable(e)
	return e
}

// Current returns the execution context running ctx, or nil outside one.
func (s *Scheduler) Current(ctx context.Context) *Env {
	return EnvFrom(ctx)
}

// Yield gives up the caller's processing unit and returns once the caller is
// scheduled again. A Running caller goes to the back of the ready set; a
// Blocked caller stays off it until MarkRunnable.
//
// Calling Yield outside an execution context panics.
func (s *Scheduler) Yield(ctx context.Context) {
	e := EnvFrom(ctx)
	if e == nil || e.sched != s {
		panic("sched: yield outside an execution context of this scheduler")
	}

	s.lk.Acquire()
	if e.Status() == Running {
		e.SetStatus(Ready)
		s.ready.Enqueue(e)
	}
	e.onCPU = false
	s.idle++
	s.stats.Yields++
	s.dispatch()
	s.lk.Release()

	<-e.resume
}

// MarkRunnable moves e to the tail of the ready set. Contexts that are already
// ready or have exited are left alone.
func (s *Scheduler) MarkRunnable(e *Env) {
	s.lk.Acquire()
	defer s.lk.Release()

	switch e.Status() {
	case Exited, Running:
		return
	case Ready:
		if e.Queued() {
			return
		}
	}
	e.SetStatus(Ready)
	s.ready.Enqueue(e)
	s.stats.Wakeups++
	s.dispatch()
}

// dispatch hands idle processing units to ready contexts in FIFO order. A
// context that was made ready before it finished yielding still holds its
// unit; it is skipped until Yield gives the unit back. Caller holds s.lk.
func (s *Scheduler) dispatch() {
	for e := s.ready.head; e != nil && s.idle > 0; {
		next := e.qnext
		if !e.onCPU {
			s.ready.Remove(e)
			e.onCPU = true
			e.SetStatus(Running)
			s.idle--
			s.stats.Dispatches++
			s.log.Debug().Int("env", e.ID).Str("name", e.Name).Msg("dispatch")
			e.resume <- struct{}{}
		}
		e = next
	}
}

func (s *Scheduler) exit(e *Env) {
	s.lk.Acquire()
	e.SetStatus(Exited)
	e.onCPU = false
	s.idle++
	s.stats.Exited++
	s.dispatch()
	s.lk.Release()

	s.log.Debug().Int("env", e.ID).Str("name", e.Name).Msg("exit")
	s.wg.Done()
}

// Wait blocks until every spawned context has exited or ctx is done. Contexts
// blocked forever keep Wait from returning until ctx expires.
func (s *Scheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Envs returns every context spawned so far.
func (s *Scheduler) Envs() []*Env {
	s.lk.Acquire()
	defer s.lk.Release()
	return append([]*Env(nil), s.envs...)
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.lk.Acquire()
	defer s.lk.Release()
	return s.stats
}
