package mock

import (
	"context"

	"github.com/fwojciec/cpbrules"
)

var _ cpbrules.Completer = (*Completer)(nil)

// Completer is a mock implementation of cpbrules.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, req *cpbrules.CompletionRequest) (string, error)
}

func (c *Completer) Complete(ctx context.Context, req *cpbrules.CompletionRequest) (string, error) {
	return c.CompleteFn(ctx, req)
}

var _ cpbrules.Transformer = (*Transformer)(nil)

// Transformer is a mock implementation of cpbrules.Transformer.
type Transformer struct {
	TransformFn func(ctx context.Context, text, title, payer string) (*cpbrules.Guideline, error)
}

func (t *Transformer) Transform(ctx context.Context, text, title, payer string) (*cpbrules.Guideline, error) {
	return t.TransformFn(ctx, text, title, payer)
}
