// Package goroutine runs bounded background work such as audit publishing.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/adminotp/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is multiplied by the CPU count when NewManager receives
// a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrPanic is collected when a task panics.
var ErrPanic = errors.New("goroutine: task panicked")

// Manager runs named tasks in goroutines with a concurrency limit.
//
// Tasks that do not fit under the limit, or that arrive after Shutdown, are
// dropped and counted rather than queued.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewManager creates a Manager allowing at most maxGoroutine concurrent tasks.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		sema: make(chan struct{}, maxGoroutine),
	}
}

// Go schedules f under name. It reports whether the task was started.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		g.dropped.Inc()
		slog.WarnContext(ctx, "goroutine manager is closed, task dropped", "task", name)
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		g.dropped.Inc()
		slog.WarnContext(ctx, "maximum goroutine limit reached, task dropped", "task", name)
		return false
	}

	g.wg.Add(1)
	go g.run(ctx, name, f)

	return true
}

func (g *Manager) run(ctx context.Context, name string, f func(ctx context.Context) error) {
	defer g.wg.Done()
	defer func() { <-g.sema }()
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "panic", rvr, "stack", string(stack))
		}
		g.collect(errors.Join(ErrPanic, errors.New(name)))
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "goroutine canceled before start", "task", name, "because", err)
		return
	}

	if err := f(ctx); err != nil {
		g.collect(err)
	}
}

func (g *Manager) collect(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

// Dropped returns how many tasks were refused so far.
func (g *Manager) Dropped() int64 {
	if g == nil {
		return 0
	}
	return g.dropped.Load()
}

// Wait blocks until every started task finishes and returns the collected
// errors. The manager keeps accepting tasks.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

// Shutdown stops accepting tasks and waits for running ones until ctx ends.
func (g *Manager) Shutdown(ctx context.Context) error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
