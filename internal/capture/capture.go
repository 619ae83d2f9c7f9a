package capture

import (
	"context"
	"time"

	"jobsnap/internal/crawler/browser"
)

// Format selects the snapshot artifact type
type Format string

const (
	FormatImage Format = "image"
	FormatPDF   Format = "pdf"
)

// Options controls how a snapshot is taken
type Options struct {
	Format     Format
	FullPage   bool
	Quality    int           // JPEG quality for image captures
	WaitBefore time.Duration // settle time before capturing
	ScrollLazy bool          // human-scroll first to load lazy content
}

// Service produces snapshot bytes for a URL. A capture failure is soft;
// callers persist the posting without a snapshot rather than failing it.
type Service interface {
	Capture(ctx context.Context, sess browser.Session, url string, opts Options) ([]byte, error)
}
