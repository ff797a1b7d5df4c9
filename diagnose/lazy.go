package diagnose

import (
	"context"
	"sync"

	"github.com/fwojciec/clearline"
)

var _ clearline.Completer = (*LazyCompleter)(nil)

// LazyCompleter defers construction of a Completer until its first use and
// shares the result afterwards. Concurrent first calls construct it once.
// A construction error is remembered and returned from every call.
type LazyCompleter struct {
	get func() (clearline.Completer, error)
}

// NewLazyCompleter returns a LazyCompleter that builds its handle with newFn.
func NewLazyCompleter(newFn func() (clearline.Completer, error)) *LazyCompleter {
	return &LazyCompleter{get: sync.OnceValues(newFn)}
}

// Complete constructs the underlying Completer if needed and delegates to it.
func (l *LazyCompleter) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	c, err := l.get()
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, prompt, temperature)
}
