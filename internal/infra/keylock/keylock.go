// Package keylock provides per-key mutual exclusion with a bounded wait.
// Holders of different keys never block each other.
package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTimeout is returned when the key stayed held for longer than the wait
// bound given to Lock.
var ErrTimeout = errors.New("timed out waiting for key lock")

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

// Locks is a set of per-key locks. Slots are created on demand and dropped
// once no goroutine holds or waits for them. The zero value is not usable;
// call New.
type Locks[K comparable] struct {
	mu    sync.Mutex
	slots map[K]*slot
}

func New[K comparable]() *Locks[K] {
	return &Locks[K]{slots: make(map[K]*slot)}
}

// Lock acquires the lock for key, waiting at most wait (wait <= 0 means
// only ctx bounds it). The returned func releases the lock and must be
// called exactly once.
func (l *Locks[K]) Lock(ctx context.Context, key K, wait time.Duration) (func(), error) {
	s := l.ref(key)

	acquireCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	err := s.sem.Acquire(acquireCtx, 1)
	if err != nil {
		l.unref(key, s)

		// The caller's own context ended: report that, not a timeout.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquire key lock: %w", ctx.Err())
		}

		return nil, ErrTimeout
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			s.sem.Release(1)
			l.unref(key, s)
		})
	}, nil
}

// Len reports how many keys currently have a holder or waiter.
func (l *Locks[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.slots)
}

func (l *Locks[K]) ref(key K) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(1)}
		l.slots[key] = s
	}

	s.refs++

	return s
}

func (l *Locks[K]) unref(key K, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
