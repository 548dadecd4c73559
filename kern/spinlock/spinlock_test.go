package spinlock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var _ sync.Locker = (*Lock)(nil)

func Test_Lock_AcquireRelease(t *testing.T) {
	l := New("test")
	require.False(t, l.Holding())

	l.Acquire()
	require.True(t, l.Holding())
	require.False(t, l.TryAcquire())

	l.Release()
	require.False(t, l.Holding())
	require.True(t, l.TryAcquire())
	l.Release()
}

func Test_Lock_ZeroValue(t *testing.T) {
	var l Lock
	l.Lock()
	l.Unlock()
	require.Equal(t, "spinlock", l.Name())
}

func Test_Lock_ReleaseUnheldPanics(t *testing.T) {
	l := New("q")
	require.PanicsWithValue(t, `spinlock: release of unheld lock "q"`, l.Release)
}

func Test_Lock_MutualExclusion(t *testing.T) {
	var (
		l       Lock
		counter int
		wg      sync.WaitGroup
	)
	const workers, iters = 8, 2000

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iters {
				l.Acquire()
				counter++
				l.Release()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*iters, counter)
	require.False(t, l.Holding())
}

func Test_Lock_SpinsCountsContention(t *testing.T) {
	l := New("contended")
	l.Acquire()
	require.Zero(t, l.Spins())

	done := make(chan struct{})
	go func() {
		l.Acquire()
		l.Release()
		close(done)
	}()

	require.Eventually(t, func() bool { return l.Spins() > 0 }, time.Second, time.Millisecond)
	l.Release()
	<-done
	require.False(t, l.Holding())
}
