package storage

import (
	"context"
	"fmt"
	"time"

	"jobsnap/internal/config"
	"jobsnap/pkg/utils"
)

// Kind identifies the artifact type being persisted
type Kind string

const (
	KindHTML       Kind = "html"
	KindScreenshot Kind = "screenshot"
	KindPDF        Kind = "pdf"
	KindMetadata   Kind = "metadata"
)

// Ext returns the file extension for the artifact kind
func (k Kind) Ext() string {
	switch k {
	case KindHTML:
		return "html"
	case KindScreenshot:
		return "jpg"
	case KindPDF:
		return "pdf"
	case KindMetadata:
		return "json"
	default:
		return "bin"
	}
}

// Store persists crawl artifacts. Paths returned are local filesystem
// paths for the local backend and object keys for the Spaces backend.
type Store interface {
	SaveHTML(ctx context.Context, content string, company, jobID, title string, date time.Time) (string, error)
	SaveBinary(ctx context.Context, data []byte, company, jobID, title string, date time.Time, kind Kind) (string, error)
}

// New creates the configured storage backend
func New(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocalStore(cfg)
	case "spaces":
		return NewSpacesStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// BuildFilename assembles the artifact filename from its parts. Title and
// job ID are sanitized to filesystem-safe tokens first; if the title
// sanitizes away entirely, the filename drops it rather than carrying an
// empty segment.
func BuildFilename(jobID, title string, ts time.Time, kind Kind) string {
	safeID := utils.SanitizeFileToken(jobID)
	if safeID == "" {
		safeID = "job"
	}
	safeTitle := utils.SanitizeFileToken(title)
	stamp := ts.Format("20060102_150405")

	if safeTitle == "" {
		return fmt.Sprintf("%s_%s.%s", safeID, stamp, kind.Ext())
	}
	return fmt.Sprintf("%s_%s_%s.%s", safeID, safeTitle, stamp, kind.Ext())
}

// DateBucket formats the per-day directory segment
func DateBucket(date time.Time) string {
	return date.Format("2006-01-02")
}
