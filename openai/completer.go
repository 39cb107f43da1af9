// Package openai implements cpbrules.Completer on top of langchaingo's
// OpenAI chat model.
package openai

import (
	"context"

	"github.com/fwojciec/cpbrules"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// Ensure Completer implements cpbrules.Completer at compile time.
var _ cpbrules.Completer = (*Completer)(nil)

// Completer sends system and user messages to a chat model and returns the
// content of the first choice.
type Completer struct {
	model llms.Model
	opts  []llms.CallOption
}

// NewCompleter wraps any langchaingo model. Call options are applied to
// every request.
func NewCompleter(model llms.Model, opts ...llms.CallOption) *Completer {
	return &Completer{model: model, opts: opts}
}

// NewLLM creates an OpenAI chat model. An empty model name selects
// cpbrules.DefaultOpenAIModel.
func NewLLM(apiKey, model string) (*lcopenai.LLM, error) {
	if apiKey == "" {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "openai API key required")
	}
	if model == "" {
		model = cpbrules.DefaultOpenAIModel
	}
	return lcopenai.New(
		lcopenai.WithToken(apiKey),
		lcopenai.WithModel(model),
	)
}

// Complete sends a single prompt and returns the model's text response.
func (c *Completer) Complete(ctx context.Context, req *cpbrules.CompletionRequest) (string, error) {
	if req == nil || req.Prompt == "" {
		return "", cpbrules.Errorf(cpbrules.EINVALID, "prompt required")
	}

	resp, err := c.model.GenerateContent(ctx, Messages(req), c.opts...)
	if err != nil {
		return "", cpbrules.Errorf(cpbrules.EUNAVAILABLE, "openai completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", cpbrules.Errorf(cpbrules.EINTERNAL, "openai returned no choices")
	}

	return resp.Choices[0].Content, nil
}

// Messages converts a completion request into chat messages: an optional
// system message followed by the user prompt.
func Messages(req *cpbrules.CompletionRequest) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		msgs = append(msgs, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}
	return append(msgs, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})
}
