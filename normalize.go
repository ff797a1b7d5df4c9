package clearline

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Normalize renders signals as the labeled plain-text block consumed by the
// filter and classifier. Sections appear in a fixed order separated by blank
// lines; empty fields produce no section at all.
func Normalize(s *ProductSignals) string {
	if s == nil {
		return ""
	}

	var sections []string
	add := func(section string) {
		sections = append(sections, section)
	}

	if s.Title != "" {
		add("Title: " + s.Title)
	}
	if s.MetaDescription != "" {
		add("Meta Description: " + s.MetaDescription)
	}
	if s.Description != "" {
		add("Product Description:\n" + s.Description)
	}
	if len(s.BulletPoints) > 0 {
		add("Key Features:\n" + bulletList(s.BulletPoints))
	}
	if s.Price != "" {
		add("Price: " + s.Price)
	}
	if len(s.Variants) > 0 {
		add("Available Variants:\n" + bulletList(s.Variants))
	}
	if len(s.StructuredData) > 0 {
		if data, err := formatJSON(s.StructuredData); err == nil {
			add("Structured Data:\n" + data)
		}
	}

	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

func bulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

// formatJSON indents v with two spaces and leaves HTML characters such as
// & and < unescaped, since the output is read by a model, not a browser.
func formatJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
