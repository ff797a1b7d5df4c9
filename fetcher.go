package clearline

import "context"

// Fetcher retrieves raw HTML from product page URLs.
type Fetcher interface {
	// Fetch makes a single attempt to retrieve url. A transport error or
	// an unsuccessful status is an error and no content is returned.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}
