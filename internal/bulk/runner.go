// Package bulk applies one operation to many destinations under bounded
// concurrency, collecting a per-item outcome without aborting the batch.
package bulk

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultConcurrency is the worker count used when callers pass no limit.
const DefaultConcurrency = 3

// Outcome pairs one item's result with its execution error. Err is set when
// the operation returned an error or panicked; the batch itself never fails
// because of one item.
type Outcome[R any] struct {
	Value R
	Err   error
}

// Map runs fn over every item with at most limit concurrent executions and
// returns outcomes positionally matching the input, regardless of completion
// order. Workers claim items through a single shared cursor, so slow items
// never strand a statically-assigned partition. Map returns only after every
// item has a terminal outcome; the returned error covers programming errors
// (bad limit, nil fn) only.
func Map[T, R any](items []T, limit int, fn func(T) (R, error)) ([]Outcome[R], error) {
	if limit <= 0 {
		return nil, fmt.Errorf("bulk: concurrency limit must be positive, got %d", limit)
	}
	if fn == nil {
		return nil, fmt.Errorf("bulk: operation is required")
	}

	outcomes := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return outcomes, nil
	}

	workers := limit
	if len(items) < workers {
		workers = len(items)
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(items) {
					return
				}
				outcomes[i] = run(items[i], fn)
			}
		}()
	}
	wg.Wait()
	return outcomes, nil
}

// run executes fn for one item, converting a panic into an error outcome so
// a bad item cannot take down its siblings.
func run[T, R any](item T, fn func(T) (R, error)) (out Outcome[R]) {
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("bulk: operation panicked: %v", r)
		}
	}()
	out.Value, out.Err = fn(item)
	return out
}
