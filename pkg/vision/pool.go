package vision

import (
	"context"
	"sync"
)

// PoolConfig configures the extraction worker pool.
type PoolConfig struct {
	MaxConcurrent int // maximum in-flight vision requests (default 10)
}

// WorkItem is a unit of work submitted to the pool.
type WorkItem[T any] struct {
	ID      int
	Execute func(ctx context.Context) (T, error)
}

// WorkResult pairs a work item's output with its failure, if any.
type WorkResult[T any] struct {
	ID     int
	Result T
	Err    error
}

// RunPool executes all work items under a fixed concurrency cap. Each task
// acquires a semaphore slot, runs, releases the slot, and reports its
// result independently of the others; one task's failure never aborts
// another's work. Results come back in completion order, not submission
// order - callers must re-sort. There is always exactly one result per
// submitted item, even on cancellation.
func RunPool[T any](
	ctx context.Context,
	cfg PoolConfig,
	items []WorkItem[T],
	onProgress func(completed, total int),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 10
	}

	results := make([]WorkResult[T], 0, len(items))
	resultsChan := make(chan WorkResult[T], len(items))
	sem := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item WorkItem[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- WorkResult[T]{ID: item.ID, Result: zero, Err: ctx.Err()}
				return
			}

			result, err := item.Execute(ctx)
			resultsChan <- WorkResult[T]{ID: item.ID, Result: result, Err: err}
		}(item)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	completed := 0
	for result := range resultsChan {
		results = append(results, result)
		completed++
		if onProgress != nil {
			onProgress(completed, len(items))
		}
	}

	return results
}
