package fetch

import "context"

// Fetcher retrieves rendered HTML for a URL without a local browser
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}
