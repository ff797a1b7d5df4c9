package mock

import (
	"context"

	"github.com/fwojciec/clearline"
)

var _ clearline.Diagnoser = (*Diagnoser)(nil)

// Diagnoser is a mock implementation of clearline.Diagnoser.
type Diagnoser struct {
	DiagnoseFn func(ctx context.Context, url string) (*clearline.Diagnosis, error)
}

func (d *Diagnoser) Diagnose(ctx context.Context, url string) (*clearline.Diagnosis, error) {
	return d.DiagnoseFn(ctx, url)
}

var _ clearline.NoiseFilter = (*NoiseFilter)(nil)

// NoiseFilter is a mock implementation of clearline.NoiseFilter.
type NoiseFilter struct {
	FilterNoiseFn func(ctx context.Context, normalized string) string
}

func (f *NoiseFilter) FilterNoise(ctx context.Context, normalized string) string {
	return f.FilterNoiseFn(ctx, normalized)
}

var _ clearline.Classifier = (*Classifier)(nil)

// Classifier is a mock implementation of clearline.Classifier.
type Classifier struct {
	ClassifyFn func(ctx context.Context, filtered string) (*clearline.DiagnosticResponse, error)
}

func (c *Classifier) Classify(ctx context.Context, filtered string) (*clearline.DiagnosticResponse, error) {
	return c.ClassifyFn(ctx, filtered)
}
