package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/cpbrules"
)

// Ensure Transformer implements cpbrules.Transformer at compile time.
var _ cpbrules.Transformer = (*Transformer)(nil)

// Transformer turns policy text into a Guideline with a language model.
//
// Each attempt makes exactly one completion. When the response is malformed
// or does not match the schema and attempts remain, the model is re-prompted
// with its previous answer and the reason it was rejected. Completer errors
// are never retried: a completion is costly and not idempotent.
type Transformer struct {
	Completer cpbrules.Completer
	Validator cpbrules.Validator

	// TokenCounter and MaxPromptTokens, when both set, reject prompts that
	// exceed the budget before they are sent. Correction prompts, which
	// carry the rejected answer, are checked too.
	TokenCounter    cpbrules.TokenCounter
	MaxPromptTokens int

	// MaxAttempts bounds the number of completions. Values below 1 mean 1.
	MaxAttempts int

	// Timeout bounds each completion. Zero means no timeout.
	Timeout time.Duration
}

// Transform converts text into a validated guideline published under title
// and payer.
func (t *Transformer) Transform(ctx context.Context, text, title, payer string) (*cpbrules.Guideline, error) {
	if strings.TrimSpace(text) == "" {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "policy text required")
	}

	prompt := cpbrules.BuildPrompt(text)
	if err := t.checkBudget(ctx, prompt); err != nil {
		return nil, err
	}

	attempts := max(t.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := t.complete(ctx, prompt)
		if err != nil {
			return nil, err
		}

		g, err := cpbrules.DecodeGuideline(raw, title, payer, t.Validator)
		if err == nil {
			return g, nil
		}
		switch cpbrules.ErrorCode(err) {
		case cpbrules.EMALFORMED, cpbrules.ESCHEMA:
		default:
			return nil, err
		}
		lastErr = err

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prompt = cpbrules.BuildCorrectionPrompt(text, raw, err)
		if err := t.checkBudget(ctx, prompt); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (t *Transformer) complete(ctx context.Context, prompt string) (string, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	return t.Completer.Complete(ctx, &cpbrules.CompletionRequest{
		System: cpbrules.SystemInstruction,
		Prompt: prompt,
	})
}

func (t *Transformer) checkBudget(ctx context.Context, prompt string) error {
	if t.TokenCounter == nil || t.MaxPromptTokens <= 0 {
		return nil
	}
	n, err := t.TokenCounter.CountTokens(ctx, cpbrules.SystemInstruction+"\n"+prompt)
	if err != nil {
		return err
	}
	if n > t.MaxPromptTokens {
		return cpbrules.Errorf(cpbrules.EINVALID, "prompt is %d tokens, limit is %d", n, t.MaxPromptTokens)
	}
	return nil
}
