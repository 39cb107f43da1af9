package main

import (
	"fmt"

	"github.com/fwojciec/cpbrules"
	"github.com/fwojciec/cpbrules/koanf"
	"github.com/fwojciec/cpbrules/pipeline"
)

// Run executes the batch command.
func (c *BatchCmd) Run(deps *Dependencies) error {
	reqs, err := koanf.LoadManifest(c.Manifest)
	if err != nil {
		return err
	}

	batch := &pipeline.Batch{
		Runner:      deps.Runner,
		Concurrency: deps.Config.Concurrency,
	}

	written := 0
	results := batch.Run(deps.Ctx, reqs, func(completed, total int, r *pipeline.Result) {
		if r.Err != nil {
			fmt.Fprintf(deps.Stderr, "[%d/%d] FAIL %s: %s\n", completed, total, r.Request.URL, FormatError(r.Err))
			return
		}
		path, err := deps.Writer.WriteGuideline(deps.Ctx, r.Request.URL, r.Guideline)
		if err != nil {
			r.Err = err
			fmt.Fprintf(deps.Stderr, "[%d/%d] FAIL %s: %s\n", completed, total, r.Request.URL, FormatError(err))
			return
		}
		written++
		fmt.Fprintf(deps.Stderr, "[%d/%d] ok   %s -> %s\n", completed, total, r.Request.URL, path)
	})

	fmt.Fprintf(deps.Stdout, "Extracted %d of %d policies\n", written, len(results))

	if failed := pipeline.Failed(results); failed > 0 {
		return cpbrules.Errorf(cpbrules.EINTERNAL, "%d of %d policies failed", failed, len(results))
	}
	return nil
}
