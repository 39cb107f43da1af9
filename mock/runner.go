package mock

import (
	"context"

	"github.com/fwojciec/cpbrules"
)

var _ cpbrules.Runner = (*Runner)(nil)

// Runner is a mock implementation of cpbrules.Runner.
type Runner struct {
	RunFn func(ctx context.Context, req *cpbrules.PolicyRequest) (*cpbrules.Guideline, error)
}

func (r *Runner) Run(ctx context.Context, req *cpbrules.PolicyRequest) (*cpbrules.Guideline, error) {
	return r.RunFn(ctx, req)
}
