package sched

// Queue is a FIFO of execution contexts linked through the contexts
// themselves, so enqueueing never allocates. The zero value is an empty queue.
//
// Queue does no locking; the owner serializes access.
type Queue struct {
	head, tail *Env
	n          int
}

// Enqueue appends e at the tail. e must not be on any queue.
func (q *Queue) Enqueue(e *Env) {
	if e.q != nil {
		panic("sched: enqueue of " + e.String() + " already on a queue")
	}
	e.q = q
	e.qnext = nil
	e.qprev = q.tail
	if q.tail != nil {
		q.tail.qnext = e
	} else {
		q.head = e
	}
	q.tail = e
	q.n++
}

// Dequeue removes and returns the head, or nil if the queue is empty.
func (q *Queue) Dequeue() *Env {
	e := q.head
	if e == nil {
		return nil
	}
	q.unlink(e)
	return e
}

// Remove unlinks e if it is on q and reports whether it was.
func (q *Queue) Remove(e *Env) bool {
	if e.q != q {
		return false
	}
	q.unlink(e)
	return true
}

func (q *Queue) unlink(e *Env) {
	if e.qprev != nil {
		e.qprev.qnext = e.qnext
	} else {
		q.head = e.qnext
	}
	if e.qnext != nil {
		e.qnext.qprev = e.qprev
	} else {
		q.tail = e.qprev
	}
	e.qnext, e.qprev, e.q = nil, nil, nil
	q.n--
}

// Len returns the number of queued contexts.
func (q *Queue) Len() int { return q.n }

// Front returns the head without removing it.
func (q *Queue) Front() *Env { return q.head }

// Each calls fn for every queued context from head to tail until fn returns
// false. fn must not modify the queue.
func (q *Queue) Each(fn func(*Env) bool) {
	for e := q.head; e != nil; e = e.qnext {
		if !fn(e) {
			return
		}
	}
}
