package clearline

import (
	"context"
	"strings"
	"time"
)

// RiskLevel estimates how likely an AI-mediated recommender is to
// confidently surface a product.
type RiskLevel string

// RiskLevel values.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Valid reports whether r is one of the three risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// ParseRiskLevel returns the canonical RiskLevel for s, ignoring case and
// surrounding whitespace. The boolean is false when s names no risk level.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, true
	case "medium":
		return RiskMedium, true
	case "high":
		return RiskHigh, true
	}
	return "", false
}

// Issues groups the gaps found in a product page. Any list may be empty.
type Issues struct {
	Missing     []string `json:"missing" yaml:"missing"`
	Ambiguity   []string `json:"ambiguity" yaml:"ambiguity"`
	Conflicts   []string `json:"conflicts" yaml:"conflicts"`
	WeakSignals []string `json:"weakSignals" yaml:"weakSignals"`
}

// DiagnosticResponse is the structured verdict for a product page.
type DiagnosticResponse struct {
	AIUnderstanding string    `json:"aiUnderstanding" yaml:"aiUnderstanding"`
	Issues          Issues    `json:"issues" yaml:"issues"`
	RiskLevel       RiskLevel `json:"riskLevel" yaml:"riskLevel"`
}

// Validate returns an error if the response is incomplete.
func (r *DiagnosticResponse) Validate() error {
	if strings.TrimSpace(r.AIUnderstanding) == "" {
		return Errorf(ECLASSIFY, "diagnostic understanding required")
	}
	if !r.RiskLevel.Valid() {
		return Errorf(ECLASSIFY, "diagnostic risk level %q invalid", r.RiskLevel)
	}
	return nil
}

// Diagnosis is the outcome of a successful diagnose call. Response is the
// primary result; the remaining fields expose intermediate stages for
// debugging and never alter it.
type Diagnosis struct {
	ID                string              `json:"id"`
	URL               string              `json:"url"`
	Response          *DiagnosticResponse `json:"response"`
	Signals           *ProductSignals     `json:"signals"`
	NormalizedContent string              `json:"normalizedContent"`
	FilteredContent   string              `json:"filteredContent"`
	CreatedAt         time.Time           `json:"createdAt"`
}

// Diagnoser produces a diagnostic for a product page URL.
type Diagnoser interface {
	// Diagnose runs the full pipeline for url.
	// Returns EINVALID, EFETCH, EINSUFFICIENT or ECLASSIFY on failure.
	Diagnose(ctx context.Context, url string) (*Diagnosis, error)
}

// NoiseFilter reduces normalized content to product-only text.
type NoiseFilter interface {
	// FilterNoise never fails; on any problem it returns its input.
	FilterNoise(ctx context.Context, normalized string) string
}

// Classifier turns filtered content into a DiagnosticResponse.
type Classifier interface {
	// Classify returns ECLASSIFY when the response cannot be produced
	// or does not satisfy DiagnosticResponse.Validate.
	Classify(ctx context.Context, filtered string) (*DiagnosticResponse, error)
}
