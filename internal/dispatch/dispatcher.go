package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlreadyStarted is returned when StartWorkers is called twice.
	ErrAlreadyStarted = errors.New("workers already started")
	// ErrWorkerPanic wraps a panic recovered from a worker.
	ErrWorkerPanic = errors.New("worker panicked")
)

// Worker is one concurrent execution unit of the pool. Run returns when the
// worker has nothing left to do; a non-nil error is fatal to the pool.
type Worker interface {
	Run(ctx context.Context) error
}

// NewWorkerFunc builds worker id around the configuration shared by the pool.
type NewWorkerFunc[C any] func(id int, cfg *C) Worker

// Dispatcher starts and joins a pool of homogeneous workers sharing one
// configuration value. It knows nothing about what the workers do.
//
// The first fatal worker error cancels the dispatcher context. Siblings are
// expected to observe Context() and return; FinishAndWait still waits for
// all of them before reporting the error.
type Dispatcher[C any] struct {
	cfg       *C
	newWorker NewWorkerFunc[C]

	ctx     context.Context
	group   *errgroup.Group
	started atomic.Bool
	size    int
}

// New creates a dispatcher whose workers run under a context derived from ctx.
func New[C any](ctx context.Context, cfg *C, newWorker NewWorkerFunc[C]) *Dispatcher[C] {
	g, gctx := errgroup.WithContext(ctx)
	return &Dispatcher[C]{
		cfg:       cfg,
		newWorker: newWorker,
		ctx:       gctx,
		group:     g,
	}
}

// Context is cancelled when a worker fails or the parent context ends.
func (d *Dispatcher[C]) Context() context.Context { return d.ctx }

// Size reports how many workers were started.
func (d *Dispatcher[C]) Size() int { return d.size }

// StartWorkers launches n workers, numbered 0..n-1. It may be called once.
func (d *Dispatcher[C]) StartWorkers(n int) error {
	if n < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", n)
	}
	if !d.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	d.size = n
	for i := 0; i < n; i++ {
		i := i // per-iteration copy; go directive is pre-1.22
		w := d.newWorker(i, d.cfg)
		d.group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: worker %d: %v\n%s", ErrWorkerPanic, i, r, debug.Stack())
				}
			}()
			return w.Run(d.ctx)
		})
	}
	return nil
}

// FinishAndWait blocks until every worker has returned and reports the first
// fatal error, if any.
func (d *Dispatcher[C]) FinishAndWait() error {
	if !d.started.Load() {
		return nil
	}
	return d.group.Wait()
}
