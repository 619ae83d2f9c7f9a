package background

import (
	"context"
	"sync"
	"time"

	"jobsnap/pkg/models"
)

// TaskType represents the type of background task
type TaskType string

const (
	TaskTypeCrawl    TaskType = "crawl"
	TaskTypeCrawlAll TaskType = "crawl_all"
)

// TaskResult represents the lifecycle record of a background task
type TaskResult struct {
	ProcessID      string                        `json:"processId"`
	Type           TaskType                      `json:"type"`
	Status         models.TaskStatus             `json:"status"`
	Result         *models.CrawlResult           `json:"result,omitempty"`
	Results        map[string]*models.CrawlResult `json:"results,omitempty"`
	Error          string                        `json:"error,omitempty"`
	CreatedAt      time.Time                     `json:"createdAt"`
	CompletedAt    *time.Time                    `json:"completedAt,omitempty"`
	ProcessingTime *time.Duration                `json:"processingTime,omitempty"`
	Metadata       map[string]interface{}        `json:"metadata,omitempty"`
}

// TaskStore defines the interface for storing and retrieving task results
type TaskStore interface {
	Store(ctx context.Context, result *TaskResult) error
	Get(ctx context.Context, processID string) (*TaskResult, error)
	Update(ctx context.Context, result *TaskResult) error
	Delete(ctx context.Context, processID string) error
	Cleanup(ctx context.Context, maxAge time.Duration) error
	List(ctx context.Context) ([]*TaskResult, error)
}

// InMemoryTaskStore implements TaskStore using in-memory storage
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*TaskResult
}

// NewInMemoryTaskStore creates a new in-memory task store
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*TaskResult),
	}
}

func (s *InMemoryTaskStore) Store(ctx context.Context, result *TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[result.ProcessID] = result
	return nil
}

func (s *InMemoryTaskStore) Get(ctx context.Context, processID string) (*TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.tasks[processID]
	if !exists {
		return nil, ErrTaskNotFound
	}
	return result, nil
}

func (s *InMemoryTaskStore) Update(ctx context.Context, result *TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[result.ProcessID]; !exists {
		return ErrTaskNotFound
	}
	s.tasks[result.ProcessID] = result
	return nil
}

func (s *InMemoryTaskStore) Delete(ctx context.Context, processID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[processID]; !exists {
		return ErrTaskNotFound
	}
	delete(s.tasks, processID)
	return nil
}

// Cleanup removes task records older than maxAge
func (s *InMemoryTaskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for processID, result := range s.tasks {
		if result.CreatedAt.Before(cutoff) {
			delete(s.tasks, processID)
		}
	}
	return nil
}

func (s *InMemoryTaskStore) List(ctx context.Context) ([]*TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*TaskResult, 0, len(s.tasks))
	for _, result := range s.tasks {
		results = append(results, result)
	}
	return results, nil
}

var ErrTaskNotFound = NewTaskError("task not found")

// TaskError represents a background task error
type TaskError struct {
	Message string
	Code    string
}

func NewTaskError(message string) *TaskError {
	return &TaskError{
		Message: message,
		Code:    "TASK_ERROR",
	}
}

func (e *TaskError) Error() string {
	return e.Message
}
