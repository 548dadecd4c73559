package sched

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Status is the scheduling state of an execution context.
type Status uint32

const (
	Created Status = iota // spawned, never run
	Ready                 // in the ready set
	Running               // owns a processing unit
	Blocked               // parked on a wait queue
	Exited                // function returned
)

var statusNames = [...]string{
	Created: "new",
	Ready:   "ready",
	Running: "running",
	Blocked: "blocked",
	Exited:  "exited",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint32(s))
}

// Env is an execution context: one goroutine that only makes progress while
// the scheduler has given it a processing unit.
type Env struct {
	ID   int
	Name string

	status atomic.Uint32

	// Intrusive queue links; an Env is on at most one Queue.
	qnext, qprev *Env
	q            *Queue

	// Guarded by the scheduler lock.
	onCPU bool

	resume chan struct{}
	sched  *Scheduler
}

func newEnv(id int, name string, s *Scheduler) *Env {
	return &Env{
		ID:     id,
		Name:   name,
		resume: make(chan struct{}, 1),
		sched:  s,
	}
}

// Status returns the current scheduling state.
func (e *Env) Status() Status {
	return Status(e.status.Load())
}

// SetStatus records a new scheduling state. Wait queues use it to mark a
// context Blocked before it yields.
func (e *Env) SetStatus(s Status) {
	e.status.Store(uint32(s))
}

// Queued reports whether e is on some Queue.
func (e *Env) Queued() bool {
	return e.q != nil
}

func (e *Env) String() string {
	return fmt.Sprintf("env %d (%s, %s)", e.ID, e.Name, e.Status())
}

type envKey struct{}

// WithEnv returns a context carrying e as the current execution context.
func WithEnv(ctx context.Context, e *Env) context.Context {
	return context.WithValue(ctx, envKey{}, e)
}

// EnvFrom returns the execution context carried by ctx, or nil.
func EnvFrom(ctx context.Context) *Env {
	e, _ := ctx.Value(envKey{}).(*Env)
	return e
}
