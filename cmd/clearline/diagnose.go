package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/fwojciec/clearline"
	"gopkg.in/yaml.v3"
)

// Run executes the diagnose command.
func (c *DiagnoseCmd) Run(deps *Dependencies) error {
	ctx := deps.Ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(deps.Stderr))
	s.Suffix = " Analyzing product page..."
	s.Start()
	diag, err := deps.Diagnoser.Diagnose(ctx, c.URL)
	s.Stop()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", clearline.ErrorMessage(err))
		if hint := configHint(err); hint != "" {
			fmt.Fprintf(deps.Stderr, "Hint: %s\n", hint)
		}
		return err
	}

	switch c.Format {
	case "json":
		return writeJSON(deps.Stdout, newReport(diag, c.Debug))
	case "yaml":
		return writeYAML(deps.Stdout, newReport(diag, c.Debug))
	default:
		writeHuman(deps.Stdout, diag, c.Debug)
		return nil
	}
}

// configHint returns the message of a configuration error, such as a missing
// API key, hidden beneath a classification failure.
func configHint(err error) string {
	if clearline.ErrorCode(err) != clearline.ECLASSIFY {
		return ""
	}
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		if e, ok := cause.(*clearline.Error); ok && e.Code == clearline.EINVALID {
			return e.Message
		}
	}
	return ""
}

// report is the machine-readable diagnose output. It matches the HTTP
// API response body.
type report struct {
	clearline.DiagnosticResponse `yaml:",inline"`
	Debug                        *reportDebug `json:"_debug,omitempty" yaml:"_debug,omitempty"`
}

type reportDebug struct {
	ExtractedSignals  *clearline.ProductSignals `json:"extractedSignals" yaml:"extractedSignals"`
	NormalizedContent string                    `json:"normalizedContent" yaml:"normalizedContent"`
	FilteredContent   string                    `json:"filteredContent" yaml:"filteredContent"`
}

func newReport(diag *clearline.Diagnosis, debug bool) *report {
	r := &report{DiagnosticResponse: *diag.Response}
	if debug {
		r.Debug = &reportDebug{
			ExtractedSignals:  diag.Signals,
			NormalizedContent: diag.NormalizedContent,
			FilteredContent:   diag.FilteredContent,
		}
	}
	return r
}

func writeJSON(w io.Writer, r *report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeYAML(w io.Writer, r *report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func writeHuman(w io.Writer, diag *clearline.Diagnosis, debug bool) {
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite, color.Bold)
	resp := diag.Response

	cyan.Fprintln(w, "AI Understanding")
	fmt.Fprintf(w, "  %s\n\n", resp.AIUnderstanding)

	white.Fprint(w, "Risk Level: ")
	riskColor(resp.RiskLevel).Fprintln(w, resp.RiskLevel)
	fmt.Fprintln(w)

	writeIssues(w, cyan, "Missing", resp.Issues.Missing)
	writeIssues(w, cyan, "Ambiguity", resp.Issues.Ambiguity)
	writeIssues(w, cyan, "Conflicts", resp.Issues.Conflicts)
	writeIssues(w, cyan, "Weak Signals", resp.Issues.WeakSignals)

	if !debug {
		return
	}

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintln(w, "Normalized Content")
	fmt.Fprintln(w, indent(diag.NormalizedContent))
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Filtered Content")
	fmt.Fprintln(w, indent(diag.FilteredContent))
}

func writeIssues(w io.Writer, heading *color.Color, title string, items []string) {
	heading.Fprintln(w, title)
	if len(items) == 0 {
		fmt.Fprintln(w, color.GreenString("  (none)"))
	}
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
	fmt.Fprintln(w)
}

func riskColor(level clearline.RiskLevel) *color.Color {
	switch level {
	case clearline.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	case clearline.RiskMedium:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
