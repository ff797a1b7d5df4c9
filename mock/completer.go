package mock

import (
	"context"

	"github.com/fwojciec/clearline"
)

var _ clearline.Completer = (*Completer)(nil)

// Completer is a mock implementation of clearline.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, prompt string, temperature float64) (string, error)
}

func (c *Completer) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	return c.CompleteFn(ctx, prompt, temperature)
}
