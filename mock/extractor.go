package mock

import "github.com/fwojciec/cpbrules"

var _ cpbrules.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of cpbrules.Extractor.
type Extractor struct {
	ExtractFn func(html string, sel cpbrules.SectionSelector) (string, error)
}

func (e *Extractor) Extract(html string, sel cpbrules.SectionSelector) (string, error) {
	return e.ExtractFn(html, sel)
}
