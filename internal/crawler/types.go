package crawler

import "context"

// Crawler produces the candidate listing links of one source
type Crawler interface {
	// FetchLinks fetches the source page and extracts normalized links
	FetchLinks(ctx context.Context) ([]string, error)

	// GetName returns the source name for logging and notifications
	GetName() string
}

// PageFetcher retrieves raw page content; helpers.Fetcher implements it
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
