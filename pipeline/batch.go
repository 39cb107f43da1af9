package pipeline

import (
	"context"
	"sync"

	"github.com/fwojciec/cpbrules"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of policies processed at once when
// Batch.Concurrency is not set.
const DefaultConcurrency = 4

// Result is the outcome of one policy in a batch. Exactly one of Guideline
// and Err is set.
type Result struct {
	Request   *cpbrules.PolicyRequest
	Guideline *cpbrules.Guideline
	Err       error
}

// ProgressFunc is called once per finished policy. Calls are serialized.
type ProgressFunc func(completed, total int, result *Result)

// Batch runs many policy extractions concurrently. Runs are independent:
// a failed policy never cancels the others.
type Batch struct {
	Runner      cpbrules.Runner
	Concurrency int
}

// Run processes reqs and returns one Result per request, in request order.
// Canceling ctx stops policies that have not started yet; they are reported
// with the context's error.
func (b *Batch) Run(ctx context.Context, reqs []*cpbrules.PolicyRequest, progress ProgressFunc) []*Result {
	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*Result, len(reqs))

	var mu sync.Mutex
	var completed int
	report := func(r *Result) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		completed++
		progress(completed, len(reqs), r)
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			r := &Result{Request: req}
			if err := ctx.Err(); err != nil {
				r.Err = err
			} else {
				r.Guideline, r.Err = b.Runner.Run(ctx, req)
			}
			results[i] = r
			report(r)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed returns the number of results carrying an error.
func Failed(results []*Result) int {
	var n int
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
