package diagnose

import "strings"

// Sampling temperatures. Filtering favours deterministic extraction;
// classification allows a little variability for natural prose.
const (
	FilterTemperature   = 0.2
	ClassifyTemperature = 0.3
)

const filterInstruction = `From the extracted text below, keep ONLY information that directly describes the product itself.

Include:
- materials
- features
- usage
- fit
- sustainability claims
- variants
- price (if present)

Exclude:
- navigation labels
- menu items
- category links
- site structure
- unrelated cross-links

Return a clean, concise product-focused text block.
Do not rewrite or improve language.
Do not add new information.`

const diagnosticInstruction = `You are an AI shopping assistant.
Based ONLY on the information provided below, explain how you understand this product.
Be confident ONLY where information is clear.
If something is missing, ambiguous, or conflicting, reflect that uncertainty.

Respond in valid JSON using the schema below.

Do NOT suggest improvements.
Do NOT optimize language.
Do NOT add marketing tone.

Required JSON Schema:
{
  "aiUnderstanding": "A confident, factual paragraph describing what the product is, who it is for, and when it would be recommended.",
  "issues": {
    "missing": ["Missing definitions or attributes"],
    "ambiguity": ["Unclear or vague statements"],
    "conflicts": ["Contradictory information"],
    "weakSignals": ["Claims without strong supporting data"]
  },
  "riskLevel": "Low | Medium | High"
}`

// BuildFilterPrompt returns the noise filter prompt for normalized content.
func BuildFilterPrompt(normalized string) string {
	var sb strings.Builder
	sb.WriteString(filterInstruction)
	sb.WriteString("\n\n---\n\nExtracted Text:\n")
	sb.WriteString(normalized)
	return sb.String()
}

// BuildDiagnosticPrompt returns the classification prompt for filtered content.
func BuildDiagnosticPrompt(filtered string) string {
	var sb strings.Builder
	sb.WriteString(diagnosticInstruction)
	sb.WriteString("\n\n---\n\nProduct Information:\n\n")
	sb.WriteString(filtered)
	return sb.String()
}
