package recommend

import (
	"context"
	"sync"

	"github.com/gammazero/workerpool"
)

// DefaultWorkerPoolSize bounds the concurrency of a full Process pass,
// sized for bulk per-entity fan-out without overwhelming the store.
const DefaultWorkerPoolSize = 20

// Process enumerates every item across every matrix (⋃_M ⋃_s F_M(s)),
// deduplicates, and reprocesses each exactly once. Work is fanned out over
// a bounded worker pool; the first error from any worker is returned after
// every submitted task has finished.
func (r *Recommender) Process(ctx context.Context) error {
	items, err := r.allItems(ctx)
	if err != nil {
		return err
	}
	return r.processWithPool(ctx, items, DefaultWorkerPoolSize)
}

func (r *Recommender) allItems(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, label := range r.order {
		items, err := r.matrices[label].AllItems(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *Recommender) processWithPool(ctx context.Context, items []string, poolSize int) error {
	wp := workerpool.New(poolSize)

	var (
		mu      sync.Mutex
		firstErr error
	)
	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, item := range items {
		item := item
		wp.Submit(func() {
			if err := r.engine.Recompute(ctx, item); err != nil {
				recordErr(err)
			}
		})
	}
	wp.StopWait()
	return firstErr
}
