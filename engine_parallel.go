package unexport

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/unexport/internal/store"
)

// processParallel runs jobs through a three-phase pipeline:
//
//	Phase A (serial):   Read sources, record files, answer cache hits.
//	Phase B (parallel): Parse, run policies and transform via a worker pool.
//	Phase C (serial):   Commit batches to SQLite and write outputs.
func (e *Engine) processParallel(ctx context.Context, jobs []Job) ([]FileResult, error) {
	results := make([]FileResult, len(jobs))
	var errs []error
	fail := func(i int, path string, err error) {
		errs = append(errs, fmt.Errorf("process %s: %w", path, err))
		results[i] = FileResult{Path: path, Err: err}
	}

	// ---- Phase A: Serial preparation ----
	var items []*workItem
	for i, job := range jobs {
		item, err := e.prepare(ctx, i, job)
		if err != nil {
			fail(i, job.Path, err)
			continue
		}
		if item.cached {
			if err := e.finish(&item); err != nil {
				fail(i, job.Path, err)
				continue
			}
			results[i] = item.result
			continue
		}
		if e.store != nil {
			item.batch = store.NewBatchedStore(e.store)
		}
		items = append(items, &item)
	}

	// ---- Phase B: Parallel transform ----
	numWorkers := e.workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(items))

	workCh := make(chan *workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item *workItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each item writes to its own BatchedStore; the database is
			// only touched again in Phase C.
			for item := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- result{item: item, err: err}
					continue
				}
				var err error
				if item.batch != nil {
					err = e.transform(ctx, item, item.batch)
				} else {
					err = e.transform(ctx, item, nil)
				}
				resultCh <- result{item: item, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	for res := range resultCh {
		item := res.item
		if res.err != nil {
			fail(item.index, item.job.Path, res.err)
			continue
		}
		if item.batch != nil {
			if err := e.store.CommitBatch(item.batch); err != nil {
				fail(item.index, item.job.Path, fmt.Errorf("commit: %w", err))
				continue
			}
		}
		if err := e.finish(item); err != nil {
			fail(item.index, item.job.Path, err)
			continue
		}
		results[item.index] = item.result
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("parallel processing had %d error(s): %w", len(errs), errs[0])
	}
	return results, nil
}
