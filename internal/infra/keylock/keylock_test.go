package keylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLock_SerializesSameKey(t *testing.T) {
	t.Parallel()

	locks := New[string]()

	const (
		workers   = 16
		perWorker = 50
	)

	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		maxSeen atomic.Int32
		counter int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range perWorker {
				unlock, err := locks.Lock(t.Context(), "user-1", 5*time.Second)
				if err != nil {
					t.Errorf("lock: %v", err)
					return
				}

				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}

				counter++

				inside.Add(-1)
				unlock()
			}
		}()
	}

	wg.Wait()

	require.Equal(t, int32(1), maxSeen.Load())
	require.Equal(t, workers*perWorker, counter)
	require.Equal(t, 0, locks.Len())
}

func TestLock_TimesOutWhileHeld(t *testing.T) {
	t.Parallel()

	locks := New[int]()

	unlock, err := locks.Lock(t.Context(), 7, time.Second)
	require.NoError(t, err)

	started := time.Now()
	_, err = locks.Lock(t.Context(), 7, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.GreaterOrEqual(t, time.Since(started), 50*time.Millisecond)

	unlock()

	unlock2, err := locks.Lock(t.Context(), 7, 50*time.Millisecond)
	require.NoError(t, err)
	unlock2()

	require.Equal(t, 0, locks.Len())
}

func TestLock_DifferentKeysIndependent(t *testing.T) {
	t.Parallel()

	locks := New[string]()

	unlockA, err := locks.Lock(t.Context(), "a", time.Second)
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locks.Lock(t.Context(), "b", 10*time.Millisecond)
	require.NoError(t, err)
	unlockB()
}

func TestLock_CallerCancelIsNotTimeout(t *testing.T) {
	t.Parallel()

	locks := New[string]()

	unlock, err := locks.Lock(t.Context(), "k", time.Second)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = locks.Lock(ctx, "k", time.Second)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrTimeout)
}

func TestLock_UnlockIsIdempotent(t *testing.T) {
	t.Parallel()

	locks := New[string]()

	unlock, err := locks.Lock(t.Context(), "k", time.Second)
	require.NoError(t, err)

	unlock()
	unlock()

	require.Equal(t, 0, locks.Len())
}
