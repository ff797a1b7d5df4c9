package diagnose_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/clearline"
	"github.com/fwojciec/clearline/diagnose"
	"github.com/fwojciec/clearline/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyCompleter_Complete(t *testing.T) {
	t.Parallel()

	t.Run("constructs once under concurrent first use", func(t *testing.T) {
		t.Parallel()

		var constructed atomic.Int32
		lazy := diagnose.NewLazyCompleter(func() (clearline.Completer, error) {
			constructed.Add(1)
			return &mock.Completer{
				CompleteFn: func(_ context.Context, prompt string, _ float64) (string, error) {
					return "echo: " + prompt, nil
				},
			}, nil
		})

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				out, err := lazy.Complete(context.Background(), "hi", 0.2)
				assert.NoError(t, err)
				assert.Equal(t, "echo: hi", out)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), constructed.Load())
	})

	t.Run("does not construct until first use", func(t *testing.T) {
		t.Parallel()

		called := false
		_ = diagnose.NewLazyCompleter(func() (clearline.Completer, error) {
			called = true
			return nil, nil
		})

		assert.False(t, called)
	})

	t.Run("remembers construction error", func(t *testing.T) {
		t.Parallel()

		var constructed atomic.Int32
		lazy := diagnose.NewLazyCompleter(func() (clearline.Completer, error) {
			constructed.Add(1)
			return nil, errors.New("OPENROUTER_API_KEY not set")
		})

		_, err1 := lazy.Complete(context.Background(), "a", 0.2)
		_, err2 := lazy.Complete(context.Background(), "b", 0.3)

		require.Error(t, err1)
		require.Error(t, err2)
		assert.Contains(t, err2.Error(), "OPENROUTER_API_KEY")
		assert.Equal(t, int32(1), constructed.Load())
	})
}
