// Package gemini implements clearline.Completer using Google Gemini.
package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/clearline"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Ensure Completer implements clearline.Completer at compile time.
var _ clearline.Completer = (*Completer)(nil)

// Completer sends single-turn prompts to Gemini.
// It is safe for concurrent use.
type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter creates a new Completer. An empty model selects DefaultModel.
func NewCompleter(client *genai.Client, model string) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{client: client, model: model}
}

// Model returns the model name used for completions.
func (c *Completer) Model() string {
	return c.model
}

// Complete sends prompt as a single user turn with the given temperature.
func (c *Completer) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", clearline.Errorf(clearline.EINVALID, "prompt required")
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		BuildConfig(temperature),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", clearline.Errorf(clearline.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for a completion call.
func BuildConfig(temperature float64) *genai.GenerateContentConfig {
	temp := float32(temperature)
	return &genai.GenerateContentConfig{
		Temperature: &temp,
	}
}
