// Package slog provides logging decorators for clearline services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/clearline"
)

// Ensure LoggingFetcher implements clearline.Fetcher.
var _ clearline.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with request logging.
type LoggingFetcher struct {
	next   clearline.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next clearline.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// Ensure LoggingCompleter implements clearline.Completer.
var _ clearline.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer with debug logging.
// Prompt and response bodies are never logged, only their sizes.
type LoggingCompleter struct {
	next   clearline.Completer
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter.
func NewLoggingCompleter(next clearline.Completer, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, logger: logger}
}

// Complete delegates to the wrapped completer.
func (c *LoggingCompleter) Complete(ctx context.Context, prompt string, temperature float64) (out string, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("complete",
			"prompt_bytes", len(prompt),
			"response_bytes", len(out),
			"temperature", temperature,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Complete(ctx, prompt, temperature)
}

// Ensure LoggingDiagnoser implements clearline.Diagnoser.
var _ clearline.Diagnoser = (*LoggingDiagnoser)(nil)

// LoggingDiagnoser wraps a Diagnoser and logs each diagnosis outcome.
type LoggingDiagnoser struct {
	next   clearline.Diagnoser
	logger *slog.Logger
}

// NewLoggingDiagnoser creates a new LoggingDiagnoser.
func NewLoggingDiagnoser(next clearline.Diagnoser, logger *slog.Logger) *LoggingDiagnoser {
	return &LoggingDiagnoser{next: next, logger: logger}
}

// Diagnose delegates to the wrapped diagnoser.
func (d *LoggingDiagnoser) Diagnose(ctx context.Context, url string) (diag *clearline.Diagnosis, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"duration", time.Since(begin),
		}
		if err != nil {
			attrs = append(attrs, "code", clearline.ErrorCode(err), "err", err)
			d.logger.Warn("diagnose", attrs...)
			return
		}
		attrs = append(attrs, "id", diag.ID, "risk", diag.Response.RiskLevel)
		d.logger.Info("diagnose", attrs...)
	}(time.Now())
	return d.next.Diagnose(ctx, url)
}
