// Package workerpool runs independent per-file work on a bounded number of
// goroutines and returns one result per input, in input order.
package workerpool

import (
	"context"
	"sync"
	"time"

	"fjacquet/invoice-reconciler/internal/logging"
)

// Pool bounds concurrency for a batch. A Pool has no state between batches.
type Pool struct {
	logger   logging.Logger
	workers  int
	progress func()
}

// New creates a Pool with the given worker count (minimum 1).
func New(workers int, logger logging.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Pool{logger: logger, workers: workers}
}

// Workers returns the configured concurrency.
func (p *Pool) Workers() int { return p.workers }

// WithProgress returns a copy of the pool that calls fn after each item
// completes. fn may be called from several goroutines at once.
func (p *Pool) WithProgress(fn func()) *Pool {
	cp := *p
	cp.progress = fn
	return &cp
}

type indexed[R any] struct {
	index  int
	result R
}

// Map applies fn to every item with at most p.Workers() calls in flight and
// waits for all of them. Results keep the order of items regardless of
// completion order. fn must not panic and must report failure through R;
// one failing item never cancels the others.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	start := time.Now()

	if p.workers == 1 || len(items) == 1 {
		for i, item := range items {
			results[i] = fn(ctx, item)
			p.tick()
		}
		p.logDone(len(items), start)
		return results
	}

	workers := p.workers
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int, workers)
	out := make(chan indexed[R], len(items))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out <- indexed[R]{index: i, result: fn(ctx, items[i])}
				p.tick()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range items {
			jobs <- i
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	for r := range out {
		results[r.index] = r.result
	}
	p.logDone(len(items), start)
	return results
}

func (p *Pool) tick() {
	if p.progress != nil {
		p.progress()
	}
}

func (p *Pool) logDone(n int, start time.Time) {
	p.logger.Debug("Worker pool batch completed",
		logging.F(logging.FieldCount, n),
		logging.F(logging.FieldWorkers, p.workers),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
}
