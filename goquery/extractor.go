// Package goquery implements clearline.Extractor with CSS selector
// heuristics over goquery documents.
package goquery

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/clearline"
)

// Ensure Extractor implements clearline.Extractor at compile time.
var _ clearline.Extractor = (*Extractor)(nil)

// probe inspects a document and returns a candidate value, or "" if the
// heuristic does not apply to the page.
type probe func(doc *goquery.Document) string

// Probe chains per field, highest priority first.
var (
	titleProbes = []probe{
		firstText("title"),
		firstText("h1"),
	}

	metaDescriptionProbes = []probe{
		firstAttr(`meta[name="description"]`, "content"),
		firstAttr(`meta[property="og:description"]`, "content"),
	}

	descriptionProbes = []probe{
		firstText(`[class*="description"]`),
		firstText(`[id*="description"]`),
		firstText("article"),
		firstText("main p"),
	}

	priceProbes = []probe{
		firstText(`[class*="price"]`),
		firstText(`[id*="price"]`),
		firstText(`[itemprop="price"]`),
		firstAttr(`[itemprop="price"]`, "content"),
	}
)

const (
	bulletSelector  = "ul li, ol li"
	variantSelector = `select option, [class*="variant"] button, [class*="option"] button`
	jsonLDSelector  = `script[type="application/ld+json"]`
)

// Extractor pulls product signals out of arbitrary product page markup.
// It holds no state and is safe for concurrent use.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses html and returns the product signals found in it.
// Unparseable markup yields empty signals rather than an error.
func (e *Extractor) Extract(html string) *clearline.ProductSignals {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &clearline.ProductSignals{Title: clearline.NoTitle}
	}

	title := firstOf(doc, titleProbes)
	if title == "" {
		title = clearline.NoTitle
	}

	return &clearline.ProductSignals{
		Title:           title,
		MetaDescription: firstOf(doc, metaDescriptionProbes),
		Description:     truncate(firstOf(doc, descriptionProbes), clearline.MaxDescriptionLength),
		BulletPoints:    collectTexts(doc, bulletSelector, clearline.MaxBulletPointLength, clearline.MaxBulletPoints),
		Price:           firstOf(doc, priceProbes),
		Variants:        collectTexts(doc, variantSelector, clearline.MaxVariantLength, clearline.MaxVariants),
		StructuredData:  findStructuredData(doc),
	}
}

// firstOf runs probes in order and returns the first non-empty result.
func firstOf(doc *goquery.Document, probes []probe) string {
	for _, p := range probes {
		if v := p(doc); v != "" {
			return v
		}
	}
	return ""
}

// firstText returns a probe yielding the trimmed text of the first element
// matching selector.
func firstText(selector string) probe {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).First().Text())
	}
}

// firstAttr returns a probe yielding the trimmed attribute value of the
// first element matching selector.
func firstAttr(selector, attr string) probe {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(selector).First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

// collectTexts returns the trimmed texts of elements matching selector in
// document order, keeping non-empty texts shorter than maxLen characters,
// up to limit entries.
func collectTexts(doc *goquery.Document, selector string, maxLen, limit int) []string {
	texts := []string{}
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text != "" && utf8.RuneCountInString(text) < maxLen {
			texts = append(texts, text)
		}
		return len(texts) < limit
	})
	return texts
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}

// findStructuredData returns the first JSON-LD object typed Product or
// ItemList. Blocks that fail to parse are skipped.
func findStructuredData(doc *goquery.Document) map[string]any {
	var found map[string]any
	doc.Find(jsonLDSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		data, err := decodeJSONLD(sel.Text())
		if err != nil {
			return true
		}
		found = productNode(data)
		return found == nil
	})
	return found
}

// decodeJSONLD parses one JSON-LD block. Numbers are kept as json.Number
// so large identifiers such as SKUs survive unrounded.
func decodeJSONLD(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON-LD value")
	}
	return data, nil
}

// productNode searches a decoded JSON-LD value for a Product or ItemList
// object. Top-level arrays and @graph containers are searched in order.
func productNode(v any) map[string]any {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if m := productNode(item); m != nil {
				return m
			}
		}
	case map[string]any:
		if isProductType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return productNode(graph)
		}
	}
	return nil
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product" || v == "ItemList"
	case []any:
		for _, item := range v {
			if isProductType(item) {
				return true
			}
		}
	}
	return false
}
