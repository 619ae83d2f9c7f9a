package models

import "time"

// TaskStatus represents the status of a background crawl task
type TaskStatus string

const (
	TaskStatusAccepted   TaskStatus = "ACCEPTED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusSuccess    TaskStatus = "SUCCESS"
	TaskStatusFailure    TaskStatus = "FAILURE"
)

// AsyncCrawlResponse represents the immediate response from the async crawl endpoint
type AsyncCrawlResponse struct {
	TaskID    string     `json:"task_id"`
	Status    TaskStatus `json:"status"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// TaskStatusResponse represents the response for task status queries
type TaskStatusResponse struct {
	TaskID         string                  `json:"task_id"`
	Status         TaskStatus              `json:"status"`
	Result         *CrawlResult            `json:"result,omitempty"`
	Results        map[string]*CrawlResult `json:"results,omitempty"`
	Error          string                  `json:"error,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	CompletedAt    *time.Time              `json:"completed_at,omitempty"`
	ProcessingTime *time.Duration          `json:"processing_time,omitempty"`
}

// CreateAsyncCrawlResponse creates a successful async crawl response
func CreateAsyncCrawlResponse(taskID string) *AsyncCrawlResponse {
	return &AsyncCrawlResponse{
		TaskID:    taskID,
		Status:    TaskStatusAccepted,
		Message:   "Crawl request accepted for background processing",
		Timestamp: time.Now(),
	}
}
