package crawler

import (
	"context"
	"time"

	"jobsnap/internal/crawler/browser"
	"jobsnap/pkg/models"
)

// Adapter is the per-site plugin seam. Adding a new site means
// implementing this interface and registering it; the orchestrator never
// changes.
type Adapter interface {
	// CompanyName is the stable identifier used as registry and storage-path key
	CompanyName() string

	// ListingURLs returns the seed URLs for the site's job-listing surface.
	// ExtractJobReferences starts its walk from these; callers may also
	// surface them for diagnostics.
	ListingURLs() []string

	// ExtractJobReferences enumerates all postings reachable from the given
	// listing page. Implementations handle their site's loading pattern
	// (infinite scroll, pagination, or a backing JSON API) and must
	// de-duplicate by job ID before returning.
	ExtractJobReferences(ctx context.Context, page *browser.Page) ([]models.JobReference, error)

	// ParseJobDetail navigates to one posting and extracts a structured
	// record. Returning an error fails that one posting only; the run
	// continues with the rest.
	ParseJobDetail(ctx context.Context, page *browser.Page, url string, index int) (*models.JobPosting, error)

	// WaitTime is the dynamic-content settle floor before reading a page
	WaitTime() time.Duration

	// Timeout is the hard ceiling for a single navigation
	Timeout() time.Duration

	// MaxConcurrentJobs is the per-site ceiling for detail-parse fan-out.
	// Sites with aggressive bot detection return 1.
	MaxConcurrentJobs() int

	// RetryCount advises how often a transient navigation failure is retried
	RetryCount() int
}

// HTMLParser is implemented by adapters whose detail extraction can run
// on raw HTML, without a live page. Used on the remote-fetch fallback
// path when headed navigation keeps failing.
type HTMLParser interface {
	ParseJobHTML(html, url string, index int) (*models.JobPosting, error)
}

// DedupeReferences drops references whose job ID was already seen,
// preserving first-seen order. Shared by adapters so each loading pattern
// gets the same guarantee.
func DedupeReferences(refs []models.JobReference) []models.JobReference {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, ref := range refs {
		if ref.JobID == "" {
			continue
		}
		if _, ok := seen[ref.JobID]; ok {
			continue
		}
		seen[ref.JobID] = struct{}{}
		out = append(out, ref)
	}
	return out
}
