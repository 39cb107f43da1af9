package cpbrules

import "context"

// CompletionRequest is a single prompt sent to a language model.
type CompletionRequest struct {
	// System is the system role instruction.
	System string

	// Prompt is the user instruction.
	Prompt string
}

// Completer sends a prompt to a language model and returns its free-form
// text response. Implementations select the model; a call may consume
// tokens on a remote service and is not idempotent.
type Completer interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}

// CompleterFunc adapts an ordinary function to the Completer interface.
type CompleterFunc func(ctx context.Context, req *CompletionRequest) (string, error)

// Complete calls f(ctx, req).
func (f CompleterFunc) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	return f(ctx, req)
}

// Transformer converts free policy text into a validated Guideline.
type Transformer interface {
	// Transform returns a guideline whose title and insurance name are the
	// supplied values and whose root rule text is RootRuleText.
	Transform(ctx context.Context, text, title, payer string) (*Guideline, error)
}
