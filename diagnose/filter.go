package diagnose

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fwojciec/clearline"
)

var _ clearline.NoiseFilter = (*Filter)(nil)

// Filter removes navigation and site chrome from normalized content using a
// Completer. Any completion failure falls back to the unfiltered input.
type Filter struct {
	Completer clearline.Completer
	Logger    *slog.Logger
}

// NewFilter creates a new Filter.
func NewFilter(completer clearline.Completer, logger *slog.Logger) *Filter {
	return &Filter{Completer: completer, Logger: logger}
}

// FilterNoise returns the product-only portion of normalized.
func (f *Filter) FilterNoise(ctx context.Context, normalized string) string {
	if strings.TrimSpace(normalized) == "" {
		return normalized
	}

	out, err := f.Completer.Complete(ctx, BuildFilterPrompt(normalized), FilterTemperature)
	if err != nil {
		f.logger().Warn("noise filter failed, using unfiltered content", "err", err)
		return normalized
	}

	filtered := strings.TrimSpace(out)
	if filtered == "" {
		f.logger().Warn("noise filter returned empty content, using unfiltered content")
		return normalized
	}

	f.logger().Debug("noise filter",
		"filtered_len", len(filtered),
		"original_len", len(normalized),
	)
	return filtered
}

func (f *Filter) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.Logger
}
