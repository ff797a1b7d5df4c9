package clearline

import "context"

// Completer is a single-turn text completion capability.
// Implementations must be safe for concurrent use.
type Completer interface {
	// Complete sends prompt with the given sampling temperature and
	// returns the model's text response.
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}
