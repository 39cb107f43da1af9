package cpbrules

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Stage is a step of a pipeline run.
type Stage string

// Stage constants, in the order a successful run passes through them.
const (
	StageFetching     Stage = "fetching"
	StageExtracting   Stage = "extracting"
	StageTransforming Stage = "transforming"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// StageError reports the stage at which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrorStage returns the stage at which err occurred, or "" if err does not
// carry one.
func ErrorStage(err error) Stage {
	var e *StageError
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// PolicyRequest identifies one policy page and the labels its guideline
// is published under.
type PolicyRequest struct {
	URL   string `json:"url" koanf:"url"`
	Title string `json:"title" koanf:"title"`
	Payer string `json:"payer" koanf:"payer"`
}

// Validate returns an error if the request contains invalid fields.
func (r *PolicyRequest) Validate() error {
	if err := ValidateURL(r.URL); err != nil {
		return err
	}
	if r.Title == "" {
		return Errorf(EINVALID, "policy title required")
	}
	if r.Payer == "" {
		return Errorf(EINVALID, "payer name required")
	}
	return nil
}

// ValidateURL returns EINVALID unless rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return Errorf(EINVALID, "policy URL required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Errorf(EINVALID, "invalid policy URL %q: %v", rawURL, err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Errorf(EINVALID, "policy URL must be an absolute http(s) URL: %q", rawURL)
	}
	return nil
}

// Runner extracts a guideline from a policy page.
type Runner interface {
	// Run fetches, extracts and transforms the policy. It returns either a
	// complete, validated guideline or a *StageError.
	Run(ctx context.Context, req *PolicyRequest) (*Guideline, error)
}

// SectionReader fetches a policy page and returns its extracted policy
// text without transforming it.
type SectionReader interface {
	ReadSection(ctx context.Context, url string) (string, error)
}
