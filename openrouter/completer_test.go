package openrouter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/clearline"
	"github.com/fwojciec/clearline/openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompleter_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := openrouter.NewCompleter("")

	require.Error(t, err)
	assert.Equal(t, clearline.EINVALID, clearline.ErrorCode(err))
}

func TestCompleter_Complete(t *testing.T) {
	t.Parallel()

	t.Run("sends single user message and returns content", func(t *testing.T) {
		t.Parallel()

		var got struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float64 `json:"temperature"`
		}
		var header http.Header
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header = r.Header.Clone()
			path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "filtered text"}}]}`))
		}))
		defer server.Close()

		c, err := openrouter.NewCompleter("sk-test",
			openrouter.WithBaseURL(server.URL+"/"),
			openrouter.WithModel("test/model"),
			openrouter.WithReferer("https://clearline.example"),
		)
		require.NoError(t, err)

		out, err := c.Complete(context.Background(), "keep only product text", 0.2)

		require.NoError(t, err)
		assert.Equal(t, "filtered text", out)
		assert.Equal(t, "/chat/completions", path)
		assert.Equal(t, "test/model", got.Model)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "user", got.Messages[0].Role)
		assert.Equal(t, "keep only product text", got.Messages[0].Content)
		assert.InDelta(t, 0.2, got.Temperature, 0.0001)
		assert.Equal(t, "Bearer sk-test", header.Get("Authorization"))
		assert.Equal(t, "https://clearline.example", header.Get("HTTP-Referer"))
		assert.Equal(t, openrouter.DefaultTitle, header.Get("X-Title"))
	})

	t.Run("returns error for non-200 status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "bad model"}}`))
		}))
		defer server.Close()

		c, err := openrouter.NewCompleter("sk-test", openrouter.WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = c.Complete(context.Background(), "prompt", 0.3)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("returns error object from 200 response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error": {"message": "upstream provider unavailable", "code": 502}}`))
		}))
		defer server.Close()

		c, err := openrouter.NewCompleter("sk-test", openrouter.WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = c.Complete(context.Background(), "prompt", 0.3)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "upstream provider unavailable")
	})

	t.Run("returns error for empty choices", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		c, err := openrouter.NewCompleter("sk-test", openrouter.WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = c.Complete(context.Background(), "prompt", 0.3)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty response")
	})

	t.Run("defaults model", func(t *testing.T) {
		t.Parallel()

		c, err := openrouter.NewCompleter("sk-test", openrouter.WithModel(""))
		require.NoError(t, err)

		assert.Equal(t, openrouter.DefaultModel, c.Model())
	})
}
