// Package workerpool provides VelesDB's single bounded-concurrency
// primitive for parallel HNSW insertion, parallel graph traversal,
// parallel aggregation, and the async dispatch wrappers that blocking
// storage operations (resize, compact, flush, batch store) run under.
//
// A package-level Config{Enabled, Workers} knob controls whether work
// actually runs on pooled goroutines, with every operation falling back
// to an unpooled synchronous path when disabled. Idle workers pull from
// one shared channel, work-stealing in spirit.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// Config controls pool sizing: a single enable toggle plus a worker
// count, reinitializable at runtime via New.
type Config struct {
	// Enabled controls whether work actually runs on pooled goroutines.
	// When false, Submit/Run execute synchronously on the caller's
	// goroutine.
	Enabled bool

	// Workers is the number of goroutines in the pool. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int
}

// DefaultConfig returns one worker per logical CPU, enabled.
func DefaultConfig() Config {
	return Config{Enabled: true, Workers: runtime.GOMAXPROCS(0)}
}

// Task is a unit of work submitted to a Pool.
type Task func(ctx context.Context)

// Pool is a bounded, reusable goroutine pool.
//
// Example:
//
//	p := workerpool.New(workerpool.DefaultConfig())
//	defer p.Close()
//
//	var wg sync.WaitGroup
//	for _, point := range batch {
//		wg.Add(1)
//		p.Submit(func(ctx context.Context) {
//			defer wg.Done()
//			index.Insert(point)
//		})
//	}
//	wg.Wait()
type Pool struct {
	cfg    Config
	tasks  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New starts a Pool with cfg.Workers goroutines draining a shared task
// channel. If cfg.Enabled is false, Submit runs tasks synchronously and
// no goroutines are started.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{cfg: cfg, tasks: make(chan Task, cfg.Workers*4), ctx: ctx, cancel: cancel}
	if cfg.Enabled {
		for i := 0; i < cfg.Workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.tasks:
			if !ok {
				return
			}
			t(p.ctx)
		}
	}
}

// Submit enqueues a task. If the pool is disabled, the task runs
// synchronously on the caller's goroutine before Submit returns.
func (p *Pool) Submit(t Task) {
	if !p.cfg.Enabled {
		t(p.ctx)
		return
	}
	select {
	case p.tasks <- t:
	case <-p.ctx.Done():
	}
}

// Run dispatches fn onto the pool and blocks until it completes, for
// wrapping mmap resize, compact, and flush so a cooperative caller's own
// goroutine is never held for the syscall's duration.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	p.Submit(func(context.Context) {
		done <- fn()
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ParallelFor runs fn(i) for i in [0,n) across the pool, blocking until
// every call returns. Used by parallel_insert, parallel aggregation, and
// parallel traversal fan-out.
func (p *Pool) ParallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		p.Submit(func(context.Context) {
			defer wg.Done()
			fn(i)
		})
	}
	wg.Wait()
}

// Close stops the pool, waiting for in-flight tasks to finish. Queued but
// not yet started tasks are dropped.
func (p *Pool) Close() {
	p.cancel()
	close(p.tasks)
	p.wg.Wait()
}
