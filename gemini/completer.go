// Package gemini implements cpbrules.Completer and cpbrules.TokenCounter
// using Google Gemini.
package gemini

import (
	"context"

	"github.com/fwojciec/cpbrules"
	"google.golang.org/genai"
)

// Ensure Completer implements cpbrules.Completer at compile time.
var _ cpbrules.Completer = (*Completer)(nil)

// Completer implements cpbrules.Completer using Google Gemini.
type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter creates a new Completer for the given model.
// An empty model selects cpbrules.DefaultGeminiModel.
func NewCompleter(client *genai.Client, model string) *Completer {
	if model == "" {
		model = cpbrules.DefaultGeminiModel
	}
	return &Completer{client: client, model: model}
}

// NewClient creates a Gemini API client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "gemini API key required")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// Model returns the model name used for completions.
func (c *Completer) Model() string {
	return c.model
}

// Complete sends a single prompt and returns the model's text response.
func (c *Completer) Complete(ctx context.Context, req *cpbrules.CompletionRequest) (string, error) {
	if req == nil || req.Prompt == "" {
		return "", cpbrules.Errorf(cpbrules.EINVALID, "prompt required")
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: req.Prompt}},
		}},
		BuildConfig(req.System),
	)
	if err != nil {
		return "", cpbrules.Errorf(cpbrules.EUNAVAILABLE, "gemini completion failed: %w", err)
	}
	if result == nil {
		return "", cpbrules.Errorf(cpbrules.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for a completion. The model
// is asked for a JSON document at a low temperature.
func BuildConfig(system string) *genai.GenerateContentConfig {
	temp := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	return config
}
