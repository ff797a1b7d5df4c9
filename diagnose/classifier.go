package diagnose

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/fwojciec/clearline"
)

var _ clearline.Classifier = (*Classifier)(nil)

// Classifier asks a Completer for a diagnostic of filtered product content.
type Classifier struct {
	Completer clearline.Completer
}

// NewClassifier creates a new Classifier.
func NewClassifier(completer clearline.Completer) *Classifier {
	return &Classifier{Completer: completer}
}

// Classify returns the diagnostic for filtered. Completion errors and
// malformed responses are reported as ECLASSIFY; no retry is attempted.
func (c *Classifier) Classify(ctx context.Context, filtered string) (*clearline.DiagnosticResponse, error) {
	raw, err := c.Completer.Complete(ctx, BuildDiagnosticPrompt(filtered), ClassifyTemperature)
	if err != nil {
		return nil, clearline.WrapError(clearline.ECLASSIFY, clearline.MsgAnalysisFailed, err)
	}

	resp, err := ParseDiagnostic(raw)
	if err != nil {
		return nil, clearline.WrapError(clearline.ECLASSIFY, clearline.MsgAnalysisFailed, err)
	}
	return resp, nil
}

var fenceRe = regexp.MustCompile("```[a-zA-Z]*")

// StripFences removes markdown code fences such as ```json ... ``` so the
// remaining text can be decoded as JSON.
func StripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

// rawDiagnostic mirrors DiagnosticResponse with pointers so that absent
// fields can be told apart from empty ones.
type rawDiagnostic struct {
	AIUnderstanding *string `json:"aiUnderstanding"`
	Issues          *struct {
		Missing     []string `json:"missing"`
		Ambiguity   []string `json:"ambiguity"`
		Conflicts   []string `json:"conflicts"`
		WeakSignals []string `json:"weakSignals"`
	} `json:"issues"`
	RiskLevel *string `json:"riskLevel"`
}

// ParseDiagnostic decodes a model response into a DiagnosticResponse.
// All three top-level fields are required and the risk level must name one
// of the known levels; a partially populated response is never returned.
// Missing category lists are repaired to empty lists.
func ParseDiagnostic(raw string) (*clearline.DiagnosticResponse, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, errors.New("empty model response")
	}

	var d rawDiagnostic
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return nil, err
	}

	switch {
	case d.AIUnderstanding == nil:
		return nil, errors.New("response missing aiUnderstanding")
	case d.Issues == nil:
		return nil, errors.New("response missing issues")
	case d.RiskLevel == nil:
		return nil, errors.New("response missing riskLevel")
	}

	risk, ok := clearline.ParseRiskLevel(*d.RiskLevel)
	if !ok {
		return nil, errors.New("response has unknown riskLevel")
	}

	resp := &clearline.DiagnosticResponse{
		AIUnderstanding: strings.TrimSpace(*d.AIUnderstanding),
		Issues: clearline.Issues{
			Missing:     cleanList(d.Issues.Missing),
			Ambiguity:   cleanList(d.Issues.Ambiguity),
			Conflicts:   cleanList(d.Issues.Conflicts),
			WeakSignals: cleanList(d.Issues.WeakSignals),
		},
		RiskLevel: risk,
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return resp, nil
}

// cleanList trims entries, drops blank ones and never returns nil.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
