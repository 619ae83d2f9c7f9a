package models

import "time"

// CrawlRequest represents the request payload for starting a crawl
type CrawlRequest struct {
	Company string        `json:"company" validate:"omitempty,max=100"`
	All     bool          `json:"all,omitempty"`
	Options *CrawlOptions `json:"options,omitempty"`
}

// CrawlOptions provides additional configuration for crawl requests
type CrawlOptions struct {
	MaxJobs       int           `json:"max_jobs,omitempty"`       // 0 means no cap
	CaptureFormat string        `json:"capture_format,omitempty"` // "image" or "pdf"
	Timeout       time.Duration `json:"timeout,omitempty"`        // Per-navigation timeout override
	Headless      *bool         `json:"headless,omitempty"`
}
