package conc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kcore/kern/sched"
	"github.com/joshuapare/kcore/kern/spinlock"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// sleepers parks one context per name on ch, in order, and returns the order
// in which they later wake.
func sleepers(t *testing.T, ctx context.Context, s *sched.Scheduler, ch *Channel, names ...string) func() []string {
	t.Helper()
	var (
		mu    sync.Mutex
		woken []string
	)
	for _, name := range names {
		s.Spawn(ctx, name, func(ctx context.Context) {
			mu.Lock()
			ch.Sleep(ctx, &mu)
			woken = append(woken, name)
			mu.Unlock()
		})
		// Wait for each sleeper before spawning the next to fix queue order.
		want := ch.Len() + 1
		require.Eventually(t, func() bool { return ch.Len() == want }, 5*time.Second, time.Millisecond)
	}
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), woken...)
	}
}

func Test_Channel_WakeupOneIsFIFO(t *testing.T) {
	ctx := testContext(t)
	s := sched.New(2)
	ch := NewChannel("fifo", s)

	woken := sleepers(t, ctx, s, ch, "A", "B", "C")
	require.Empty(t, woken())

	for i, want := range []string{"A", "B", "C"} {
		ch.WakeupOne()
		require.Eventually(t, func() bool { return len(woken()) == i+1 }, 5*time.Second, time.Millisecond)
		require.Equal(t, want, woken()[i])
	}

	require.NoError(t, s.Wait(ctx))
	require.Zero(t, ch.Len())
	sl, wk := ch.Counts()
	require.Equal(t, 3, sl)
	require.Equal(t, 3, wk)
}

func Test_Channel_WakeupAllPreservesOrder(t *testing.T) {
	ctx := testContext(t)
	s := sched.New(1)
	ch := NewChannel("all", s)

	woken := sleepers(t, ctx, s, ch, "A", "B", "C", "D")
	ch.WakeupAll()

	require.NoError(t, s.Wait(ctx))
	require.Equal(t, []string{"A", "B", "C", "D"}, woken())
	require.Zero(t, ch.Len())
}

func Test_Channel_WakeupOnEmptyIsNoop(t *testing.T) {
	s := sched.New(1)
	ch := NewChannel("empty", s)

	ch.WakeupOne()
	ch.WakeupAll()
	require.Zero(t, ch.Len())
	require.False(t, QueueLock().Holding())
	require.Equal(t, "empty", ch.Name())
}

func Test_Channel_SleeperIsBlocked(t *testing.T) {
	ctx := testContext(t)
	s := sched.New(1)
	ch := NewChannel("blocked", s)

	var mu sync.Mutex
	e := s.Spawn(ctx, "sleeper", func(ctx context.Context) {
		mu.Lock()
		ch.Sleep(ctx, &mu)
		mu.Unlock()
	})
	require.Eventually(t, func() bool { return ch.Len() == 1 }, 5*time.Second, time.Millisecond)
	require.Equal(t, sched.Blocked, e.Status())

	// The caller's lock was released while asleep.
	require.True(t, mu.TryLock())
	ch.WakeupOne()
	mu.Unlock()

	require.NoError(t, s.Wait(ctx))
	require.Equal(t, sched.Exited, e.Status())
}

// Test_Channel_NoLostWakeup bounces a turn flag between two contexts many
// times over several processing units. A lost wakeup leaves both asleep and
// Wait times out.
func Test_Channel_NoLostWakeup(t *testing.T) {
	ctx := testContext(t)
	s := sched.New(4)
	ch := NewChannel("turn", s)
	lk := spinlock.New("turn")

	const rounds = 500
	turn := 0
	player := func(me int) func(context.Context) {
		return func(ctx context.Context) {
			for range rounds {
				lk.Acquire()
				for turn != me {
					ch.Sleep(ctx, lk)
				}
				turn = 1 - me
				ch.WakeupOne()
				lk.Release()
			}
		}
	}
	s.Spawn(ctx, "ping", player(0))
	s.Spawn(ctx, "pong", player(1))

	require.NoError(t, s.Wait(ctx))
	require.Zero(t, ch.Len())
}

func Test_Channel_ManyWaitersWakeupAll(t *testing.T) {
	ctx := testContext(t)
	s := sched.New(3)
	ch := NewChannel("gate", s)
	lk := spinlock.New("gate")

	open := false
	passed := 0
	for range 16 {
		s.Spawn(ctx, "waiter", func(ctx context.Context) {
			lk.Acquire()
			for !open {
				ch.Sleep(ctx, lk)
			}
			passed++
			lk.Release()
		})
	}

	s.Spawn(ctx, "opener", func(ctx context.Context) {
		s.Yield(ctx)
		lk.Acquire()
		open = true
		ch.WakeupAll()
		lk.Release()
	})

	require.NoError(t, s.Wait(ctx))
	require.Equal(t, 16, passed)
}

func Test_Channel_SleepMisuse(t *testing.T) {
	s := sched.New(1)
	ch := NewChannel("misuse", s)

	var mu sync.Mutex
	mu.Lock()
	require.Panics(t, func() { ch.Sleep(context.Background(), &mu) })
	require.Panics(t, func() { ch.Sleep(context.Background(), QueueLock()) })
	require.False(t, QueueLock().Holding())
}
