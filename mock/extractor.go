package mock

import "github.com/fwojciec/clearline"

var _ clearline.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of clearline.Extractor.
type Extractor struct {
	ExtractFn func(html string) *clearline.ProductSignals
}

func (e *Extractor) Extract(html string) *clearline.ProductSignals {
	return e.ExtractFn(html)
}
