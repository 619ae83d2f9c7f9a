package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/mendableai/firecrawl-go"

	"jobsnap/internal/config"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
)

// FirecrawlFetcher fetches rendered page HTML through the Firecrawl API.
// It serves as the fallback path when headed navigation keeps getting
// blocked by anti-bot walls a local browser cannot clear.
type FirecrawlFetcher struct {
	config *config.Config
	app    *firecrawl.FirecrawlApp
	logger types.Logger
}

// NewFirecrawlFetcher creates the fetcher. Returns an error when the
// integration is disabled or the client cannot be built.
func NewFirecrawlFetcher(cfg *config.Config) (*FirecrawlFetcher, error) {
	if !cfg.Firecrawl.Enabled || cfg.Firecrawl.APIKey == "" {
		return nil, fmt.Errorf("firecrawl integration is not enabled")
	}

	app, err := firecrawl.NewFirecrawlApp(cfg.Firecrawl.APIKey, cfg.Firecrawl.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firecrawl client: %w", err)
	}

	return &FirecrawlFetcher{
		config: cfg,
		app:    app,
		logger: logging.GetGlobalLogger().WithField("component", "firecrawl"),
	}, nil
}

// FetchHTML retrieves the rendered HTML of a URL, retrying transient
// failures with linear backoff
func (f *FirecrawlFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	params := &firecrawl.ScrapeParams{
		Formats: []string{"html"},
	}

	var doc *firecrawl.FirecrawlDocument
	var err error

	maxRetries := f.config.Firecrawl.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		doc, err = f.app.ScrapeURL(url, params)
		if err == nil {
			break
		}

		f.logger.Warn("Firecrawl fetch attempt failed", map[string]interface{}{
			"attempt": attempt,
			"url":     url,
			"error":   err.Error(),
		})

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	if err != nil {
		return "", fmt.Errorf("firecrawl fetch failed after %d attempts: %w", maxRetries, err)
	}
	if doc == nil {
		return "", fmt.Errorf("no document returned for %s", url)
	}

	if doc.HTML != "" {
		return doc.HTML, nil
	}
	if doc.RawHTML != "" {
		return doc.RawHTML, nil
	}
	return "", fmt.Errorf("empty document returned for %s", url)
}
