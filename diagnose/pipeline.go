// Package diagnose orchestrates the product page diagnostic pipeline:
// fetch, extract, normalize, filter and classify.
package diagnose

import (
	"context"
	"net/url"
	"time"

	"github.com/fwojciec/clearline"
	"github.com/google/uuid"
)

var _ clearline.Diagnoser = (*Pipeline)(nil)

// Pipeline runs one independent, strictly sequential diagnosis per call.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	Fetcher    clearline.Fetcher
	Extractor  clearline.Extractor
	Filter     clearline.NoiseFilter
	Classifier clearline.Classifier

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Diagnose fetches rawURL and returns its diagnostic.
//
// Errors:
//   - EINVALID: rawURL is not an absolute http or https URL
//   - EFETCH: the page could not be retrieved
//   - EINSUFFICIENT: the page has no title, description or bullet points
//   - ECLASSIFY: the diagnostic could not be produced
func (p *Pipeline) Diagnose(ctx context.Context, rawURL string) (*clearline.Diagnosis, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	html, err := p.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, clearline.WrapError(clearline.EFETCH, clearline.MsgUnsuitablePage, err)
	}

	signals := p.Extractor.Extract(html)
	if !signals.HasContent() {
		return nil, clearline.Errorf(clearline.EINSUFFICIENT, clearline.MsgUnsuitablePage)
	}

	normalized := clearline.Normalize(signals)
	filtered := p.Filter.FilterNoise(ctx, normalized)

	resp, err := p.Classifier.Classify(ctx, filtered)
	if err != nil {
		if clearline.ErrorCode(err) != clearline.ECLASSIFY {
			err = clearline.WrapError(clearline.ECLASSIFY, clearline.MsgAnalysisFailed, err)
		}
		return nil, err
	}

	return &clearline.Diagnosis{
		ID:                uuid.NewString(),
		URL:               rawURL,
		Response:          resp,
		Signals:           signals,
		NormalizedContent: normalized,
		FilteredContent:   filtered,
		CreatedAt:         p.now(),
	}, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// ValidateURL returns EINVALID unless rawURL is an absolute http or https URL
// with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return clearline.Errorf(clearline.EINVALID, "Product URL is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return clearline.Errorf(clearline.EINVALID, "Invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return clearline.Errorf(clearline.EINVALID, "Invalid URL format")
	}
	return nil
}
