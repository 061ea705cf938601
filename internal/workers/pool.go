// Package workers runs batches of independent jobs on a bounded number of
// goroutines.
package workers

import (
	"context"
	"sync"
)

// DefaultWorkers is used when a pool is created with a non-positive size.
const DefaultWorkers = 4

// Pool manages a fixed number of worker goroutines per batch
type Pool struct {
	numWorkers int
}

// NewPool creates a pool with the specified number of workers
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &Pool{numWorkers: numWorkers}
}

// Size returns the number of workers per batch
func (p *Pool) Size() int {
	return p.numWorkers
}

// Run calls fn for every index in [0, n) using at most Size goroutines and
// returns the errors by index (nil entries succeeded). Once ctx is done no
// further indices are handed out; those that never ran report ctx.Err().
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	jobs := make(chan int)
	results := make(chan result, n)

	numActualWorkers := min(p.numWorkers, n)

	var wg sync.WaitGroup
	for w := 0; w < numActualWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- result{index: i, err: fn(ctx, i)}
			}
		}()
	}

	dispatched := 0
dispatch:
	for ; dispatched < n; dispatched++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- dispatched:
		}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		errs[r.index] = r.err
	}
	for i := dispatched; i < n; i++ {
		errs[i] = ctx.Err()
	}

	return errs
}

// result carries one job outcome back to the collector
type result struct {
	index int
	err   error
}
