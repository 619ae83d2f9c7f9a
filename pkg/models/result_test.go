package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlResultCounters(t *testing.T) {
	r := NewCrawlResult("acme")

	r.AddStorageResult(StorageResult{Success: true, JobID: "1"})
	r.AddStorageResult(StorageResult{Success: true, JobID: "2"})
	r.AddStorageResult(StorageResult{Success: false, JobID: "3", Error: "disk full"})

	assert.Equal(t, 2, r.SuccessfulSaves)
	assert.Equal(t, 1, r.FailedSaves)
	assert.Equal(t, r.SuccessfulSaves+r.FailedSaves, len(r.StorageResults))
}

func TestCrawlResultRoundTrip(t *testing.T) {
	r := NewCrawlResult("acme")
	r.TotalJobs = 10
	r.Success = true
	r.Duration = 42 * time.Second
	r.CompletedAt = time.Now().UTC()
	r.AddStorageResult(StorageResult{Success: true, JobID: "j1", HTMLPath: "/tmp/j1.html"})
	r.AddStorageResult(StorageResult{Success: false, JobID: "j2", Error: "timeout"})
	r.AddError("parse failed for j2")

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded CrawlResult
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, r.TotalJobs, decoded.TotalJobs)
	assert.Equal(t, r.SuccessfulSaves, decoded.SuccessfulSaves)
	assert.Equal(t, r.FailedSaves, decoded.FailedSaves)
	assert.Equal(t, r.CompanyName, decoded.CompanyName)
	assert.Len(t, decoded.ErrorLogs, 1)
	assert.Len(t, decoded.StorageResults, 2)
}

func TestJobPostingTruncateSections(t *testing.T) {
	p := &JobPosting{
		JobDescription:         strings.Repeat("a", 5000),
		RequiredQualifications: strings.Repeat("b", 100),
		Notes:                  strings.Repeat("c", 2001),
	}

	p.TruncateSections(2000)

	assert.Len(t, p.JobDescription, 2000)
	assert.Len(t, p.RequiredQualifications, 100)
	assert.Len(t, p.Notes, 2000)
}

func TestJobPostingTruncateMultibyte(t *testing.T) {
	p := &JobPosting{JobDescription: strings.Repeat("가", 30)}

	p.TruncateSections(10)

	assert.Equal(t, 10, len([]rune(p.JobDescription)))
}

func TestJobPostingScreenshotExcludedFromJSON(t *testing.T) {
	p := &JobPosting{
		URL:             "https://example.com/jobs/1",
		JobID:           "1",
		Company:         "acme",
		ScreenshotBytes: []byte{0x89, 0x50, 0x4e, 0x47},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "screenshot")
}
