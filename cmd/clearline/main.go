package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/clearline"
	clprom "github.com/fwojciec/clearline/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		// Commands report application errors themselves.
		var appErr *clearline.Error
		if !errors.As(err, &appErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Getenv looks up API keys and endpoints. Defaults to os.Getenv.
	Getenv func(string) string

	// Diagnoser replaces the wired pipeline for end-to-end testing.
	Diagnoser clearline.Diagnoser
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Getenv: os.Getenv,
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("clearline"),
		kong.Description("Preview how an AI system understands a product page."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'clearline --help' to see available commands")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	serving := strings.HasPrefix(kongCtx.Command(), "serve")
	deps.Logger = newLogger(stderr, cli.Verbose, serving)

	w := Wiring{
		Provider: cli.Provider,
		Model:    cli.Model,
		Logger:   deps.Logger,
	}
	if serving {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		w.Metrics = clprom.NewMetrics(reg)
		w.Browser = cli.Serve.Browser
		deps.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	} else {
		w.Browser = cli.Diagnose.Browser
	}

	if m.Diagnoser != nil {
		deps.Diagnoser = m.Diagnoser
	} else {
		diagnoser, closer, err := m.NewDiagnoser(ctx, w)
		if err != nil {
			return err
		}
		defer closer.Close()
		deps.Diagnoser = diagnoser
	}

	return kongCtx.Run(deps)
}

// newLogger writes text logs to w. One-shot diagnoses only surface
// warnings unless verbose is set.
func newLogger(w io.Writer, verbose, serving bool) *slog.Logger {
	level := slog.LevelWarn
	if serving {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
