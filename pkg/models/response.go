package models

import "time"

// CrawlResponse represents the synchronous response from a crawl request
type CrawlResponse struct {
	Success   bool                    `json:"success"`
	Result    *CrawlResult            `json:"result,omitempty"`
	Results   map[string]*CrawlResult `json:"results,omitempty"` // all-sites mode, keyed by company
	Error     string                  `json:"error,omitempty"`
	RequestID string                  `json:"request_id"`
}

// CompanyListResponse lists registered company adapters
type CompanyListResponse struct {
	Companies []string `json:"companies"`
	Count     int      `json:"count"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
