// Package pipeline orchestrates guideline extraction: fetching a policy
// page, extracting its policy section and transforming the text into a
// validated rule tree. It also runs many extractions concurrently.
package pipeline

import (
	"context"
	"net/url"
	"time"

	"github.com/fwojciec/cpbrules"
)

// Ensure Pipeline implements the runner interfaces at compile time.
var (
	_ cpbrules.Runner        = (*Pipeline)(nil)
	_ cpbrules.SectionReader = (*Pipeline)(nil)
)

// StageFunc observes stage transitions of a run.
type StageFunc func(req *cpbrules.PolicyRequest, stage cpbrules.Stage)

// Pipeline runs fetch, extract and transform in sequence. It holds no
// per-run state and may be shared by concurrent runs.
type Pipeline struct {
	Fetcher     cpbrules.Fetcher
	Extractor   cpbrules.Extractor
	Transformer cpbrules.Transformer

	// Section locates the policy text. The zero value selects
	// cpbrules.DefaultSection.
	Section cpbrules.SectionSelector

	// RateLimiter, if set, is waited on per host before each fetch.
	RateLimiter cpbrules.DomainLimiter

	// RetryDelays are the backoff delays between fetch attempts. Empty
	// means the page is fetched once.
	RetryDelays []time.Duration
	OnRetry     RetryFunc

	OnStage StageFunc
}

// Run extracts a guideline from the page described by req. Any failure is
// returned as a *cpbrules.StageError and no partial result is produced.
func (p *Pipeline) Run(ctx context.Context, req *cpbrules.PolicyRequest) (*cpbrules.Guideline, error) {
	p.notify(req, cpbrules.StageFetching)
	if err := req.Validate(); err != nil {
		return nil, p.fail(req, cpbrules.StageFetching, err)
	}

	text, err := p.readSection(ctx, req)
	if err != nil {
		return nil, err
	}

	p.notify(req, cpbrules.StageTransforming)
	g, err := p.Transformer.Transform(ctx, text, req.Title, req.Payer)
	if err != nil {
		return nil, p.fail(req, cpbrules.StageTransforming, err)
	}

	p.notify(req, cpbrules.StageDone)
	return g, nil
}

// ReadSection fetches rawURL and returns its policy text.
func (p *Pipeline) ReadSection(ctx context.Context, rawURL string) (string, error) {
	req := &cpbrules.PolicyRequest{URL: rawURL}
	p.notify(req, cpbrules.StageFetching)
	if err := cpbrules.ValidateURL(rawURL); err != nil {
		return "", p.fail(req, cpbrules.StageFetching, err)
	}

	text, err := p.readSection(ctx, req)
	if err != nil {
		return "", err
	}
	p.notify(req, cpbrules.StageDone)
	return text, nil
}

// readSection runs the fetching and extracting stages for a validated req.
func (p *Pipeline) readSection(ctx context.Context, req *cpbrules.PolicyRequest) (string, error) {
	html, err := p.fetch(ctx, req.URL)
	if err != nil {
		return "", p.fail(req, cpbrules.StageFetching, err)
	}

	p.notify(req, cpbrules.StageExtracting)
	sel := p.Section
	if sel == (cpbrules.SectionSelector{}) {
		sel = cpbrules.DefaultSection
	}
	text, err := p.Extractor.Extract(html, sel)
	if err != nil {
		return "", p.fail(req, cpbrules.StageExtracting, err)
	}
	return text, nil
}

func (p *Pipeline) fetch(ctx context.Context, rawURL string) (string, error) {
	if p.RateLimiter != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", cpbrules.Errorf(cpbrules.EINVALID, "invalid policy URL %q: %v", rawURL, err)
		}
		if err := p.RateLimiter.Wait(ctx, u.Hostname()); err != nil {
			return "", err
		}
	}

	html, err := FetchWithRetry(ctx, rawURL, p.Fetcher.Fetch, p.RetryDelays, p.OnRetry)
	if err != nil {
		return "", cpbrules.Errorf(cpbrules.EFETCH, "fetching %s: %w", rawURL, err)
	}
	return html, nil
}

func (p *Pipeline) fail(req *cpbrules.PolicyRequest, stage cpbrules.Stage, err error) error {
	p.notify(req, cpbrules.StageFailed)
	return &cpbrules.StageError{Stage: stage, Err: err}
}

func (p *Pipeline) notify(req *cpbrules.PolicyRequest, stage cpbrules.Stage) {
	if p.OnStage != nil {
		p.OnStage(req, stage)
	}
}
