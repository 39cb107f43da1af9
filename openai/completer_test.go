package openai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/cpbrules"
	"github.com/fwojciec/cpbrules/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is a langchaingo model returning canned responses.
type fakeModel struct {
	GenerateContentFn func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return m.GenerateContentFn(ctx, messages, options...)
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestCompleter_Complete(t *testing.T) {
	t.Parallel()

	t.Run("returns first choice content", func(t *testing.T) {
		t.Parallel()

		var got []llms.MessageContent
		model := &fakeModel{
			GenerateContentFn: func(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
				got = messages
				return &llms.ContentResponse{
					Choices: []*llms.ContentChoice{{Content: `{"title":"x"}`}, {Content: "second"}},
				}, nil
			},
		}

		out, err := openai.NewCompleter(model).Complete(context.Background(), &cpbrules.CompletionRequest{
			System: cpbrules.SystemInstruction,
			Prompt: "Criterion A",
		})

		require.NoError(t, err)
		assert.Equal(t, `{"title":"x"}`, out)
		require.Len(t, got, 2)
		assert.Equal(t, llms.ChatMessageTypeSystem, got[0].Role)
		assert.Equal(t, llms.ChatMessageTypeHuman, got[1].Role)
	})

	t.Run("wraps model errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("rate limited")
		model := &fakeModel{
			GenerateContentFn: func(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
				return nil, boom
			},
		}

		_, err := openai.NewCompleter(model).Complete(context.Background(), &cpbrules.CompletionRequest{Prompt: "p"})

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, cpbrules.EUNAVAILABLE, cpbrules.ErrorCode(err))
	})

	t.Run("no choices is an internal error", func(t *testing.T) {
		t.Parallel()

		model := &fakeModel{
			GenerateContentFn: func(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
				return &llms.ContentResponse{}, nil
			},
		}

		_, err := openai.NewCompleter(model).Complete(context.Background(), &cpbrules.CompletionRequest{Prompt: "p"})

		require.Error(t, err)
		assert.Equal(t, cpbrules.EINTERNAL, cpbrules.ErrorCode(err))
	})

	t.Run("requires prompt", func(t *testing.T) {
		t.Parallel()

		called := false
		model := &fakeModel{
			GenerateContentFn: func(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
				called = true
				return nil, nil
			},
		}

		_, err := openai.NewCompleter(model).Complete(context.Background(), &cpbrules.CompletionRequest{})

		require.Error(t, err)
		assert.Equal(t, cpbrules.EINVALID, cpbrules.ErrorCode(err))
		assert.False(t, called)
	})
}

func TestMessages(t *testing.T) {
	t.Parallel()

	t.Run("system message precedes prompt", func(t *testing.T) {
		t.Parallel()

		msgs := openai.Messages(&cpbrules.CompletionRequest{System: "sys", Prompt: "user"})

		require.Len(t, msgs, 2)
		assert.Equal(t, []llms.ContentPart{llms.TextPart("sys")}, msgs[0].Parts)
		assert.Equal(t, []llms.ContentPart{llms.TextPart("user")}, msgs[1].Parts)
	})

	t.Run("omits empty system message", func(t *testing.T) {
		t.Parallel()

		msgs := openai.Messages(&cpbrules.CompletionRequest{Prompt: "user"})

		require.Len(t, msgs, 1)
		assert.Equal(t, llms.ChatMessageTypeHuman, msgs[0].Role)
	})
}

func TestNewLLM_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := openai.NewLLM("", "")

	require.Error(t, err)
	assert.Equal(t, cpbrules.EINVALID, cpbrules.ErrorCode(err))
}
