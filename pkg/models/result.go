package models

import "time"

// StorageResult records the persistence outcome for one posting
type StorageResult struct {
	Success        bool   `json:"success"`
	JobID          string `json:"job_id"`
	Title          string `json:"title,omitempty"`
	HTMLPath       string `json:"html_path,omitempty"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	MetadataPath   string `json:"metadata_path,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CrawlResult is the terminal artifact of one site run
type CrawlResult struct {
	CompanyName     string          `json:"company_name"`
	Success         bool            `json:"success"`
	TotalJobs       int             `json:"total_jobs"`
	SuccessfulSaves int             `json:"successful_saves"`
	FailedSaves     int             `json:"failed_saves"`
	StorageResults  []StorageResult `json:"storage_results"`
	ErrorLogs       []string        `json:"error_logs"`
	Duration        time.Duration   `json:"duration"`
	CompletedAt     time.Time       `json:"completed_at"`

	// Error is set only on structural failures such as an unknown company.
	// Per-job failures go to ErrorLogs instead.
	Error string `json:"error,omitempty"`
}

// NewCrawlResult creates an empty result for a run that is starting
func NewCrawlResult(companyName string) *CrawlResult {
	return &CrawlResult{
		CompanyName:    companyName,
		StorageResults: []StorageResult{},
		ErrorLogs:      []string{},
	}
}

// AddError appends a non-fatal diagnostic entry
func (r *CrawlResult) AddError(msg string) {
	r.ErrorLogs = append(r.ErrorLogs, msg)
}

// AddStorageResult records one persistence outcome and updates the counters
func (r *CrawlResult) AddStorageResult(sr StorageResult) {
	r.StorageResults = append(r.StorageResults, sr)
	if sr.Success {
		r.SuccessfulSaves++
	} else {
		r.FailedSaves++
	}
}
