package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/clearline"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx            context.Context
	Stdout         io.Writer
	Stderr         io.Writer
	Logger         *slog.Logger
	Diagnoser      clearline.Diagnoser
	MetricsHandler http.Handler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose  bool   `short:"v" help:"Enable debug logging"`
	Provider string `enum:"gemini,openrouter" default:"gemini" env:"CLEARLINE_PROVIDER" help:"LLM provider (gemini, openrouter)"`
	Model    string `env:"CLEARLINE_MODEL" help:"Model name (defaults per provider)"`

	Diagnose DiagnoseCmd `cmd:"" help:"Diagnose how well AI understands a product page"`
	Serve    ServeCmd    `cmd:"" help:"Serve the AI preview HTTP API"`
}

// DiagnoseCmd is the "diagnose" subcommand.
type DiagnoseCmd struct {
	URL     string        `arg:"" help:"Product page URL"`
	Format  string        `short:"o" enum:"human,json,yaml" default:"human" help:"Output format (human, json, yaml)"`
	Debug   bool          `help:"Include extracted signals and intermediate content"`
	Browser bool          `help:"Render the page with headless Chrome"`
	Timeout time.Duration `default:"90s" help:"Overall time limit"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr      string        `default:":3000" env:"CLEARLINE_ADDR" help:"Listen address"`
	Debug     bool          `help:"Include _debug details in responses"`
	Browser   bool          `help:"Render pages with headless Chrome"`
	Timeout   time.Duration `default:"90s" help:"Time limit for one diagnosis"`
	RateLimit float64       `default:"1" help:"Requests per second allowed per client"`
	Burst     int           `default:"5" help:"Request burst allowed per client"`
}
