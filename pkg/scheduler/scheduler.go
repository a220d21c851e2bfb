package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
)

// Task is deferred work. It must return promptly once ctx is cancelled.
type Task func(ctx context.Context)

type entry struct {
	generation uint64
	cancel     context.CancelFunc
}

// Scheduler runs at most one deferred task per key (a session id).
// Scheduling a task for a key cancels the previous one unless that one belongs
// to a newer generation, so a session never has two reveals or auto-advance
// timers racing each other.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*entry
	wg     sync.WaitGroup
	closed bool
	logger *slog.Logger
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithLogger configures a logger for the Scheduler.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks:  make(map[string]*entry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule cancels any task pending for key and runs fn in a new goroutine.
// generation is the session generation the task was computed for. A task that
// arrives late for an older generation than the pending one is dropped and the
// newer task keeps running. It returns false when fn was not scheduled.
func (s *Scheduler) Schedule(key string, generation uint64, fn Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if prev, ok := s.tasks[key]; ok {
		if prev.generation > generation {
			s.logger.Debug("stale task dropped", "session_id", key, "generation", generation, "pending", prev.generation)
			return false
		}
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{generation: generation, cancel: cancel}
	s.tasks[key] = e

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.finish(key, e)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled task panicked", "session_id", key, "generation", generation, "panic", r)
			}
		}()
		fn(ctx)
	}()
	return true
}

func (s *Scheduler) finish(key string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.cancel()
	if s.tasks[key] == e {
		delete(s.tasks, key)
	}
}

// Cancel stops the task pending for key, if any.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.tasks[key]; ok {
		e.cancel()
		delete(s.tasks, key)
	}
}

// Supersede cancels the task pending for key when it was scheduled for a
// generation older than generation. Newer work is left alone, so it is safe to
// call after a transition committed without holding the session lock.
func (s *Scheduler) Supersede(key string, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[key]
	if !ok || e.generation >= generation {
		return false
	}
	e.cancel()
	delete(s.tasks, key)
	return true
}

// Pending returns the generation of the task pending for key.
func (s *Scheduler) Pending(key string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tasks[key]
	if !ok {
		return 0, false
	}
	return e.generation, true
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Wait blocks until every scheduled task has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close cancels all pending tasks, rejects new ones and waits for running tasks to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for key, e := range s.tasks {
		e.cancel()
		delete(s.tasks, key)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Sleep waits for d or until ctx is done. It reports whether the full delay elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
