// Package workpool implements the shared-cursor worker pool described
// in spec §4.M/§5: a fixed pool of goroutines claims work items one at
// a time from a mutex-guarded cursor, rather than being handed a
// pre-split slice each, so that uneven per-item costs (a route with a
// long WPT file, a user with a huge .list) even out across workers.
// Generalized from the cursor/mutex pattern inlined in
// csvload.loadWaypointsParallel, built on golang.org/x/sync/errgroup
// for first-fatal-error propagation and cancellation.
package workpool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Run fans items out across numWorkers goroutines sharing one cursor.
// fn's returned error is treated as fatal: the first one cancels the
// group's context and Run returns it once every worker has stopped.
// Per-item data-quality problems belong in an ErrorList or log
// accumulated inside fn, not in fn's return value — only a fatal,
// run-aborting condition should return an error here.
func Run[T any](ctx context.Context, items []T, numWorkers int, fn func(context.Context, T) error) error {
	numWorkers = clamp(numWorkers, len(items))
	if numWorkers == 0 {
		return nil
	}

	next := cursor(items)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			for {
				item, ok := next()
				if !ok {
					return nil
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				if err := fn(gctx, item); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// RunCollect is Run plus a per-worker accumulator, merged into one
// slice after every worker finishes. Each worker only ever appends to
// its own accumulator, so fn needs no locking of its own to build
// results; final order is worker-major, item-minor (non-deterministic
// across runs) — callers that need a stable order should sort the
// result themselves (as §5 requires for datacheck/naming-log output).
func RunCollect[T, R any](ctx context.Context, items []T, numWorkers int, fn func(context.Context, T) ([]R, error)) ([]R, error) {
	numWorkers = clamp(numWorkers, len(items))
	if numWorkers == 0 {
		return nil, nil
	}

	next := cursor(items)
	perWorker := make([][]R, numWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		i := i
		g.Go(func() error {
			for {
				item, ok := next()
				if !ok {
					return nil
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				out, err := fn(gctx, item)
				if err != nil {
					return err
				}
				perWorker[i] = append(perWorker[i], out...)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []R
	for _, w := range perWorker {
		merged = append(merged, w...)
	}
	return merged, nil
}

func clamp(numWorkers, itemCount int) int {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > itemCount {
		numWorkers = itemCount
	}
	return numWorkers
}

func cursor[T any](items []T) func() (T, bool) {
	var i int
	var mu sync.Mutex
	return func() (T, bool) {
		mu.Lock()
		defer mu.Unlock()
		var zero T
		if i >= len(items) {
			return zero, false
		}
		item := items[i]
		i++
		return item, true
	}
}
