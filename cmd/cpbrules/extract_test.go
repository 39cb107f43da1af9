package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/cpbrules"
	"github.com/fwojciec/cpbrules/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmdExtract(t *testing.T) {
	t.Parallel()

	t.Run("prints the guideline as JSON", func(t *testing.T) {
		t.Parallel()

		var fetched []string
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newMain(pageFetcher(&fetched), fixedCompleter(nil)).Run(context.Background(),
			[]string{"extract"}, stdout, stderr)

		require.NoError(t, err)
		assert.Empty(t, stderr.String())
		assert.Equal(t, []string{cpbrules.DefaultSourceURL}, fetched)

		var g cpbrules.Guideline
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &g))
		assert.Equal(t, cpbrules.DefaultTitle, g.Title)
		assert.Equal(t, cpbrules.DefaultPayer, g.InsuranceName)
		assert.Equal(t, cpbrules.RootRuleText, g.Rules.Text)
		require.Len(t, g.Rules.Rules, 2)
		assert.Equal(t, "Criterion A", g.Rules.Rules[0].Text)
	})

	t.Run("uses URL argument and label flags", func(t *testing.T) {
		t.Parallel()

		var fetched []string
		stdout := &bytes.Buffer{}

		err := newMain(pageFetcher(&fetched), fixedCompleter(nil)).Run(context.Background(),
			[]string{"--title", "Example Policy", "--payer", "Cigna", "extract", "https://static.cigna.com/mm_0001.html"},
			stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://static.cigna.com/mm_0001.html"}, fetched)
		assert.Contains(t, stdout.String(), `"title": "Example Policy"`)
		assert.Contains(t, stdout.String(), `"insurance_name": "Cigna"`)
	})

	t.Run("reports the failed stage", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return `<html><body><p>Moved.</p></body></html>`, nil
			},
			CloseFn: func() error { return nil },
		}
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newMain(fetcher, fixedCompleter(&calls)).Run(context.Background(),
			[]string{"extract"}, stdout, stderr)

		require.Error(t, err)
		assert.Equal(t, cpbrules.StageExtracting, cpbrules.ErrorStage(err))
		assert.Equal(t, cpbrules.EHEADING, cpbrules.ErrorCode(err))
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "error: extracting failed: ")
		assert.Zero(t, calls.Load())
	})

	t.Run("rejects relative URL", func(t *testing.T) {
		t.Parallel()

		var fetched []string
		err := newMain(pageFetcher(&fetched), fixedCompleter(nil)).Run(context.Background(),
			[]string{"extract", "/cpb/0369.html"}, &bytes.Buffer{}, &bytes.Buffer{})

		require.Error(t, err)
		assert.Equal(t, cpbrules.EINVALID, cpbrules.ErrorCode(err))
		assert.Empty(t, fetched)
	})

	t.Run("retries malformed responses up to the attempt limit", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		completer := &mock.Completer{
			CompleteFn: func(_ context.Context, req *cpbrules.CompletionRequest) (string, error) {
				calls.Add(1)
				return "I cannot help with that.", nil
			},
		}

		err := newMain(pageFetcher(nil), completer).Run(context.Background(),
			[]string{"--attempts", "2", "extract"}, &bytes.Buffer{}, &bytes.Buffer{})

		require.Error(t, err)
		assert.Equal(t, cpbrules.EMALFORMED, cpbrules.ErrorCode(err))
		assert.Equal(t, cpbrules.StageTransforming, cpbrules.ErrorStage(err))
		assert.Equal(t, int32(2), calls.Load())
	})
}
