// Package clearline previews what an AI shopping assistant would understand
// about a product page. It fetches a single page, extracts product signals,
// strips non-product noise and classifies the remaining content into a
// structured diagnostic: an understanding summary, categorized gaps and a
// risk level.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, gemini/, http/).
package clearline
