package workload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/joshuapare/kcore/internal/logger"
	"github.com/joshuapare/kcore/kern/conc"
	"github.com/joshuapare/kcore/kern/sched"
	"github.com/joshuapare/kcore/kern/spinlock"
)

// PCConfig tunes a producer/consumer run.
type PCConfig struct {
	CPUs      int     // processing units
	Producers int     // producing contexts
	Consumers int     // consuming contexts
	Items     int     // total items to move through the buffer
	Capacity  int     // buffer slots
	Rate      float64 // producer items per second across all producers; 0 = unpaced
	Burst     int     // limiter burst; defaults to 1

	// Tracer receives one span per produce/consume. Nil uses the global
	// provider.
	Tracer trace.Tracer
}

// DefaultPCConfig is used for zero fields of a PCConfig.
var DefaultPCConfig = PCConfig{
	CPUs:      2,
	Producers: 2,
	Consumers: 2,
	Items:     1000,
	Capacity:  8,
}

func (c PCConfig) withDefaults() PCConfig {
	d := DefaultPCConfig
	if c.CPUs <= 0 {
		c.CPUs = d.CPUs
	}
	if c.Producers <= 0 {
		c.Producers = d.Producers
	}
	if c.Consumers <= 0 {
		c.Consumers = d.Consumers
	}
	if c.Items <= 0 {
		c.Items = d.Items
	}
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer("kcore-workload")
	}
	return c
}

// PCReport summarizes a producer/consumer run.
type PCReport struct {
	Produced       int           `json:"produced"`
	Consumed       int           `json:"consumed"`
	Sum            int64         `json:"sum"`
	ProducerSleeps int           `json:"producerSleeps"`
	ConsumerSleeps int           `json:"consumerSleeps"`
	Wakeups        int           `json:"wakeups"`
	Dispatches     int           `json:"dispatches"`
	Yields         int           `json:"yields"`
	LockSpins      uint64        `json:"lockSpins"` // buffer lock contention
	Elapsed        time.Duration `json:"elapsed"`
}

// boundedBuffer is a ring of ints guarded by a spinlock, with one channel for
// each direction of waiting.
type boundedBuffer struct {
	lk       *spinlock.Lock
	notFull  *conc.Channel
	notEmpty *conc.Channel

	slots    []int
	head, n  int
	items    int // total to be consumed
	taken    int
	produced int
	sum      int64
}

func (b *boundedBuffer) put(ctx context.Context, v int) {
	b.lk.Acquire()
	for b.n == len(b.slots) {
		b.notFull.Sleep(ctx, b.lk)
	}
	b.slots[(b.head+b.n)%len(b.slots)] = v
	b.n++
	b.produced++
	b.notEmpty.WakeupOne()
	b.lk.Release()
}

// take returns the next item, or false once every item has been taken.
func (b *boundedBuffer) take(ctx context.Context) (int, bool) {
	b.lk.Acquire()
	defer b.lk.Release()

	for b.n == 0 && b.taken < b.items {
		b.notEmpty.Sleep(ctx, b.lk)
	}
	if b.taken == b.items {
		return 0, false
	}
	v := b.slots[b.head]
	b.head = (b.head + 1) % len(b.slots)
	b.n--
	b.taken++
	b.sum += int64(v)
	if b.taken == b.items {
		// Release consumers still waiting for items that will never come.
		b.notEmpty.WakeupAll()
	}
	b.notFull.WakeupOne()
	return v, true
}

// ProducerConsumer moves Items integers (1..Items) from producers to consumers
// through a bounded buffer on the scheduler simulator. It fails if ctx expires
// first, which is also how a lost wakeup would show up.
func ProducerConsumer(ctx context.Context, cfg PCConfig) (*PCReport, error) {
	cfg = cfg.withDefaults()
	log := logger.Component("workload")
	s := sched.New(cfg.CPUs)

	buf := &boundedBuffer{
		lk:       spinlock.New("buffer"),
		notFull:  conc.NewChannel("not-full", s),
		notEmpty: conc.NewChannel("not-empty", s),
		slots:    make([]int, cfg.Capacity),
		items:    cfg.Items,
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	limiter := rate.NewLimiter(limit, cfg.Burst)

	var (
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for p := range cfg.Producers {
		s.Spawn(runCtx, fmt.Sprintf("producer-%d", p), func(ctx context.Context) {
			// Producer p sends p+1, p+1+Producers, ...
			for v := p + 1; v <= cfg.Items; v += cfg.Producers {
				if err := limiter.Wait(ctx); err != nil {
					fail(fmt.Errorf("producer %d: %w", p, err))
					return
				}
				spanCtx, span := cfg.Tracer.Start(ctx, "produce")
				span.SetAttributes(
					attribute.Int("item", v),
					attribute.Int("env", s.Current(ctx).ID),
				)
				buf.put(spanCtx, v)
				span.End()
			}
		})
	}
	for c := range cfg.Consumers {
		s.Spawn(runCtx, fmt.Sprintf("consumer-%d", c), func(ctx context.Context) {
			for {
				spanCtx, span := cfg.Tracer.Start(ctx, "consume")
				v, ok := buf.take(spanCtx)
				span.SetAttributes(attribute.Int("item", v), attribute.Bool("ok", ok))
				span.End()
				if !ok {
					return
				}
			}
		})
	}

	if err := s.Wait(ctx); err != nil {
		return nil, fmt.Errorf("producer/consumer: %w", err)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	st := s.Stats()
	pSleeps, pWakes := buf.notFull.Counts()
	cSleeps, cWakes := buf.notEmpty.Counts()
	r := &PCReport{
		Produced:       buf.produced,
		Consumed:       buf.taken,
		Sum:            buf.sum,
		ProducerSleeps: pSleeps,
		ConsumerSleeps: cSleeps,
		Wakeups:        pWakes + cWakes,
		Dispatches:     st.Dispatches,
		Yields:         st.Yields,
		LockSpins:      buf.lk.Spins(),
		Elapsed:        time.Since(start),
	}

	if want := int64(cfg.Items) * int64(cfg.Items+1) / 2; r.Sum != want {
		return r, fmt.Errorf("producer/consumer: consumed sum %d, want %d", r.Sum, want)
	}
	log.Info().
		Int("items", r.Consumed).
		Int("producerSleeps", r.ProducerSleeps).
		Int("consumerSleeps", r.ConsumerSleeps).
		Dur("elapsed", r.Elapsed).
		Msg("producer/consumer done")
	return r, nil
}
