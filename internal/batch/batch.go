// Package batch runs per-entry archive jobs on a bounded worker pool.
//
// Run fans independent jobs out to a fixed worker set and collects results
// into a pre-sized, index-addressed slice, so callers get index-based
// ordering regardless of completion order. Pipeline adds a single in-order
// consumer for jobs whose results must be applied sequentially, such as
// appends to a shared output file.
package batch

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/fennwald/xbarc/internal/sizing"
)

// Result is the outcome of one job. Index matches the job's position;
// Bytes is the job's reported payload size when it succeeded.
type Result struct {
	Index int
	Bytes uint64
	Err   error
}

// Options configures Run.
type Options struct {
	// Workers bounds parallelism. Zero picks a host-sized default,
	// negative forces serial execution.
	Workers int

	// FailFast cancels undispatched jobs after the first failure.
	// In-flight jobs always run to completion.
	FailFast bool
}

// Workers resolves a requested worker count against the job count.
// Positive requests are clamped to jobs, negative requests force 1, and
// zero uses min(GOMAXPROCS, jobs).
func Workers(requested, jobs int) int {
	if jobs < 1 {
		return 1
	}
	switch {
	case requested > 0:
		return min(requested, jobs)
	case requested < 0:
		return 1
	default:
		return max(1, min(runtime.GOMAXPROCS(0), jobs))
	}
}

// Run executes fn for every index in [0, n) on a bounded worker set pulling
// from a shared queue. The returned slice has one Result per job at the
// job's index. Run never drops a job silently: jobs skipped due to
// cancellation carry the context error. It blocks until all in-flight jobs
// have finished.
func Run(ctx context.Context, n int, opts Options, fn func(ctx context.Context, index int) (uint64, error)) []Result {
	results := make([]Result, n)
	for i := range results {
		results[i].Index = i
	}
	if n == 0 {
		return results
	}

	runCtx := ctx
	cancel := func() {}
	if opts.FailFast {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	workers := Workers(opts.Workers, n)
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range jobs {
				nbytes, err := fn(runCtx, i)
				results[i].Bytes = nbytes
				results[i].Err = err
				if err != nil && opts.FailFast {
					cancel()
				}
			}
		}()
	}

	// Dispatch in index order. Jobs that never dispatch are marked with the
	// cancellation error; workers only touch indices they received, so the
	// two writers never overlap.
dispatch:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			err := runCtx.Err()
			for j := i; j < n; j++ {
				results[j].Err = err
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// PipelineOptions configures Pipeline.
type PipelineOptions struct {
	// Workers bounds produce parallelism, resolved like Options.Workers.
	Workers int

	// BudgetBytes caps the bytes of produced-but-unconsumed payloads.
	// Zero disables the cap. Items larger than the cap are admitted alone.
	// The cap is approximate backpressure for mostly-ordered completion,
	// not a hard memory ceiling.
	BudgetBytes uint64
}

// item carries one produced payload to the consumer.
type item struct {
	index int
	data  []byte
}

// Pipeline runs produce for every index in [0, n) on parallel workers and
// hands each payload to consume strictly in index order on a single
// goroutine, re-sequencing out-of-order completions through a pending map.
// The first error cancels all outstanding work and is returned.
func Pipeline(ctx context.Context, n int, opts PipelineOptions, produce func(ctx context.Context, index int) ([]byte, error), consume func(index int, data []byte) error) error {
	if n == 0 {
		return nil
	}

	var budget *semaphore.Weighted
	var budgetCap int64
	if opts.BudgetBytes > 0 {
		limit, err := sizing.ToInt64(opts.BudgetBytes)
		if err != nil {
			return err
		}
		budget = semaphore.NewWeighted(limit)
		budgetCap = limit
	}
	weight := func(data []byte) int64 {
		w := int64(len(data))
		if budgetCap > 0 && w > budgetCap {
			w = budgetCap
		}
		return w
	}

	workers := Workers(opts.Workers, n)
	jobs := make(chan int)
	ready := make(chan item, workers)
	eg, egCtx := errgroup.WithContext(ctx)

	var produceWg sync.WaitGroup
	produceWg.Add(workers)
	for range workers {
		eg.Go(func() error {
			defer produceWg.Done()
			for i := range jobs {
				data, err := produce(egCtx, i)
				if err != nil {
					return err
				}
				if budget != nil {
					if err := budget.Acquire(egCtx, weight(data)); err != nil {
						return err
					}
				}
				select {
				case ready <- item{index: i, data: data}:
				case <-egCtx.Done():
					if budget != nil {
						budget.Release(weight(data))
					}
					return egCtx.Err()
				}
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})

	go func() {
		produceWg.Wait()
		close(ready)
	}()

	eg.Go(func() error {
		next := 0
		pending := make(map[int][]byte, workers)
		for next < n {
			select {
			case it, ok := <-ready:
				if !ok {
					if err := egCtx.Err(); err != nil {
						return err
					}
					return errors.New("batch: pipeline ended unexpectedly")
				}
				pending[it.index] = it.data
				for {
					data, ok := pending[next]
					if !ok {
						break
					}
					delete(pending, next)
					err := consume(next, data)
					if budget != nil {
						budget.Release(weight(data))
					}
					if err != nil {
						return err
					}
					next++
				}
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})

	return eg.Wait()
}
