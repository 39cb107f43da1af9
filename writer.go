package cpbrules

import "context"

// GuidelineWriter persists a guideline extracted from sourceURL.
type GuidelineWriter interface {
	// WriteGuideline stores g and returns the location it was written to.
	WriteGuideline(ctx context.Context, sourceURL string, g *Guideline) (string, error)
}
