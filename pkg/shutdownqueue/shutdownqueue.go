// Package shutdownqueue runs named cleanup tasks in LIFO order when the
// process stops.
//
// The package-level Add and Shutdown operate on a process-wide default
// queue; tests and embedded servers can create their own with New.
//
//	shutdownqueue.Add("postgres", func(ctx context.Context) error { return db.Close() })
//	...
//	err := shutdownqueue.Shutdown(ctx)
//
// Tasks run once. Panics are recovered and reported as errors. Shutdown is
// idempotent and joins all task errors with errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a shutdown function. It should honor ctx.
type Task func(ctx context.Context) error

type entry struct {
	name string
	run  Task
}

// Queue holds registered tasks until Shutdown drains them.
type Queue struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

var defaultQueue = New()

func New() *Queue {
	return &Queue{entries: make([]entry, 0, 8)}
}

// Add registers t on the default queue.
func Add(name string, t Task) {
	defaultQueue.Add(name, t)
}

// Shutdown drains the default queue.
func Shutdown(ctx context.Context) error {
	return defaultQueue.Shutdown(ctx)
}

// Add registers a task. A nil task, or a task added after Shutdown started,
// is ignored.
func (q *Queue) Add(name string, t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		slog.Warn("shutdown task registered after shutdown started", "task", name)
		return
	}

	q.entries = append(q.entries, entry{name: name, run: t})
}

// Shutdown runs every registered task in reverse order of registration.
// It stops early when ctx is done and returns the context error joined with
// the task errors collected so far.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	entries := q.entries
	q.entries = nil
	q.mu.Unlock()

	var errs []error

	for i := len(entries) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))
			break
		}

		err := runTask(ctx, entries[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, e entry) (err error) {
	started := time.Now()

	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task %q: %v", e.name, r)
		}

		slog.Info("shutdown task finished", "task", e.name, "took", time.Since(started), "error", err)
	}()

	err = e.run(ctx)
	if err != nil {
		return fmt.Errorf("shutdown task %q: %w", e.name, err)
	}

	return nil
}
