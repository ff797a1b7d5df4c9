package clearline

import "strings"

// NoTitle is the title recorded when a page has neither a title element
// nor a top-level heading.
const NoTitle = "No title found"

// Extraction bounds. Lengths are counted in characters, not bytes.
const (
	MaxDescriptionLength = 1000
	MaxBulletPoints      = 10
	MaxBulletPointLength = 200
	MaxVariants          = 10
	MaxVariantLength     = 50
)

// ProductSignals is the bounded view of a product page produced by an Extractor.
// Absent values are empty strings, empty slices or a nil StructuredData.
type ProductSignals struct {
	Title           string         `json:"title" yaml:"title"`
	MetaDescription string         `json:"metaDescription" yaml:"metaDescription"`
	Description     string         `json:"description" yaml:"description"`
	BulletPoints    []string       `json:"bulletPoints" yaml:"bulletPoints"`
	Price           string         `json:"price" yaml:"price"`
	Variants        []string       `json:"variants" yaml:"variants"`
	StructuredData  map[string]any `json:"structuredData" yaml:"structuredData"`
}

// HasContent reports whether the signals carry enough prose to diagnose:
// a real title, a description or at least one bullet point.
// Price, variants and structured data are not considered.
func (s *ProductSignals) HasContent() bool {
	if s == nil {
		return false
	}
	if title := strings.TrimSpace(s.Title); title != "" && title != NoTitle {
		return true
	}
	return strings.TrimSpace(s.Description) != "" || len(s.BulletPoints) > 0
}

// Extractor turns raw page markup into ProductSignals.
type Extractor interface {
	// Extract never fails: malformed markup and missing elements
	// degrade to empty fields.
	Extract(html string) *ProductSignals
}
