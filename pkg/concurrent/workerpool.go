// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs functions concurrently with a bounded number of goroutines.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
	}
}

// Size returns the maximum number of concurrent workers.
func (wp *WorkerPool) Size() int {
	return wp.workerCount
}

// Run executes all functions using errgroup with goroutine limiting.
// Returns the first error encountered, and cancels remaining work.
func (wp *WorkerPool) Run(ctx context.Context, functions ...func() error) error {
	if len(functions) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, fn := range functions {
		g.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			return fn()
		})
	}

	return g.Wait()
}

// RunAll executes all functions without cancellation on error.
// Returns a slice containing only the non-nil errors that occurred.
func (wp *WorkerPool) RunAll(ctx context.Context, functions ...func() error) []error {
	if len(functions) == 0 {
		return nil
	}

	errs := make([]error, len(functions))
	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for i, fn := range functions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn()
			return nil
		})
	}
	_ = g.Wait()

	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// Result is the outcome of applying a function to one input of Map.
type Result[In, Out any] struct {
	Input In
	Value Out
	Err   error
}

// Map applies fn to every input on the pool and returns one Result per input
// in input order. A failing input does not stop the others; once ctx is done
// the inputs that have not started report ctx.Err().
func Map[In, Out any](ctx context.Context, wp *WorkerPool, inputs []In, fn func(context.Context, In) (Out, error)) []Result[In, Out] {
	results := make([]Result[In, Out], len(inputs))
	if len(inputs) == 0 {
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for i, in := range inputs {
		results[i].Input = in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = fn(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
