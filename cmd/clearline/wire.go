package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fwojciec/clearline"
	"github.com/fwojciec/clearline/diagnose"
	"github.com/fwojciec/clearline/gemini"
	"github.com/fwojciec/clearline/goquery"
	clhttp "github.com/fwojciec/clearline/http"
	"github.com/fwojciec/clearline/openrouter"
	clprom "github.com/fwojciec/clearline/prometheus"
	"github.com/fwojciec/clearline/rod"
	clslog "github.com/fwojciec/clearline/slog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

// Provider names accepted by --provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// modeler is implemented by completers that report their model name.
type modeler interface {
	Model() string
}

// Wiring selects the concrete services behind a Diagnoser.
type Wiring struct {
	Provider string
	Model    string
	Browser  bool
	Logger   *slog.Logger

	// Metrics is optional. When set, diagnoses and completions are counted.
	Metrics *clprom.Metrics
}

// NewDiagnoser assembles the diagnostic pipeline. The returned closer
// releases the fetcher and must be called when done.
func (m *Main) NewDiagnoser(ctx context.Context, w Wiring) (clearline.Diagnoser, io.Closer, error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var fetcher clearline.Fetcher
	if w.Browser {
		f, err := rod.NewFetcher()
		if err != nil {
			logger.Error("Chrome or Chromium must be installed for --browser")
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = f
	} else {
		fetcher = clhttp.NewFetcher(clhttp.WithTransport(otelhttp.NewTransport(http.DefaultTransport)))
	}
	fetcher = clslog.NewLoggingFetcher(fetcher, logger)

	// The provider is built on first use so that pages rejected before
	// classification never need credentials.
	var completer clearline.Completer = diagnose.NewLazyCompleter(func() (clearline.Completer, error) {
		c, err := m.NewCompleter(context.WithoutCancel(ctx), w.Provider, w.Model)
		if err != nil {
			return nil, err
		}
		if named, ok := c.(modeler); ok {
			logger.Info("completion provider ready", "provider", w.Provider, "model", named.Model())
		}
		return c, nil
	})
	completer = clslog.NewLoggingCompleter(completer, logger)
	if w.Metrics != nil {
		completer = clprom.NewInstrumentedCompleter(completer, w.Metrics)
	}

	var diagnoser clearline.Diagnoser = &diagnose.Pipeline{
		Fetcher:    fetcher,
		Extractor:  goquery.NewExtractor(),
		Filter:     diagnose.NewFilter(completer, logger),
		Classifier: diagnose.NewClassifier(completer),
	}
	diagnoser = clslog.NewLoggingDiagnoser(diagnoser, logger)
	if w.Metrics != nil {
		diagnoser = clprom.NewInstrumentedDiagnoser(diagnoser, w.Metrics)
	}

	return diagnoser, fetcher, nil
}

// NewCompleter connects to the named provider using API keys from the
// environment. An empty model selects the provider default.
func (m *Main) NewCompleter(ctx context.Context, provider, model string) (clearline.Completer, error) {
	getenv := m.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	switch provider {
	case ProviderGemini, "":
		apiKey := getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, clearline.Errorf(clearline.EINVALID, "GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		return gemini.NewCompleter(client, model), nil

	case ProviderOpenRouter:
		apiKey := getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, clearline.Errorf(clearline.EINVALID, "OPENROUTER_API_KEY not set. Get a key at https://openrouter.ai/keys")
		}
		opts := []openrouter.Option{
			openrouter.WithModel(model),
			openrouter.WithHTTPClient(&http.Client{
				Timeout:   openrouter.DefaultTimeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			}),
		}
		if baseURL := getenv("OPENROUTER_BASE_URL"); baseURL != "" {
			opts = append(opts, openrouter.WithBaseURL(baseURL))
		}
		if referer := getenv("OPENROUTER_REFERER"); referer != "" {
			opts = append(opts, openrouter.WithReferer(referer))
		}
		return openrouter.NewCompleter(apiKey, opts...)

	default:
		return nil, clearline.Errorf(clearline.EINVALID, "unknown provider %q", provider)
	}
}
