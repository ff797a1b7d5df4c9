package main_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/clearline"
	main "github.com/fwojciec/clearline/cmd/clearline"
	"github.com/fwojciec/clearline/gemini"
	"github.com/fwojciec/clearline/openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMain(env map[string]string) *main.Main {
	m := main.NewMain()
	m.Getenv = func(k string) string { return env[k] }
	return m
}

func TestMain_NewCompleter(t *testing.T) {
	t.Parallel()

	t.Run("gemini requires API key", func(t *testing.T) {
		t.Parallel()

		_, err := envMain(nil).NewCompleter(context.Background(), main.ProviderGemini, "")

		require.Error(t, err)
		assert.Equal(t, clearline.EINVALID, clearline.ErrorCode(err))
		assert.Contains(t, clearline.ErrorMessage(err), "GEMINI_API_KEY")
	})

	t.Run("gemini uses default model", func(t *testing.T) {
		t.Parallel()

		c, err := envMain(map[string]string{"GEMINI_API_KEY": "test-key"}).NewCompleter(context.Background(), main.ProviderGemini, "")

		require.NoError(t, err)
		gc, ok := c.(*gemini.Completer)
		require.True(t, ok)
		assert.Equal(t, gemini.DefaultModel, gc.Model())
	})

	t.Run("openrouter requires API key", func(t *testing.T) {
		t.Parallel()

		_, err := envMain(nil).NewCompleter(context.Background(), main.ProviderOpenRouter, "")

		require.Error(t, err)
		assert.Contains(t, clearline.ErrorMessage(err), "OPENROUTER_API_KEY")
	})

	t.Run("openrouter honours model", func(t *testing.T) {
		t.Parallel()

		c, err := envMain(map[string]string{"OPENROUTER_API_KEY": "sk-test"}).NewCompleter(context.Background(), main.ProviderOpenRouter, "test/model")

		require.NoError(t, err)
		oc, ok := c.(*openrouter.Completer)
		require.True(t, ok)
		assert.Equal(t, "test/model", oc.Model())
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		t.Parallel()

		_, err := envMain(nil).NewCompleter(context.Background(), "acme", "")

		require.Error(t, err)
		assert.Equal(t, clearline.EINVALID, clearline.ErrorCode(err))
	})
}

func TestMain_NewDiagnoser(t *testing.T) {
	t.Parallel()

	d, closer, err := envMain(nil).NewDiagnoser(context.Background(), main.Wiring{Provider: main.ProviderGemini})

	require.NoError(t, err)
	require.NotNil(t, d)
	require.NoError(t, closer.Close())
}

func TestMain_NewDiagnoser_LogsSelectedModel(t *testing.T) {
	t.Parallel()

	shop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, productPage)
	}))
	defer shop.Close()

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices": [{"message": {"content": "{\"aiUnderstanding\": \"Headphones.\", \"issues\": {}, \"riskLevel\": \"Low\"}"}}]}`)
	}))
	defer llm.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := envMain(map[string]string{
		"OPENROUTER_API_KEY":  "sk-test",
		"OPENROUTER_BASE_URL": llm.URL,
	})

	d, closer, err := m.NewDiagnoser(context.Background(), main.Wiring{
		Provider: main.ProviderOpenRouter,
		Model:    "test/model",
		Logger:   logger,
	})
	require.NoError(t, err)
	defer closer.Close()

	_, err = d.Diagnose(context.Background(), shop.URL)

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(buf.String(), "completion provider ready"))
	assert.Contains(t, buf.String(), "provider=openrouter")
	assert.Contains(t, buf.String(), "model=test/model")
}
