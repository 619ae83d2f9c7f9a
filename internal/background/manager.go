package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobsnap/internal/config"
	"jobsnap/internal/crawler"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
	"jobsnap/pkg/models"
)

const (
	DefaultMaxWorkers   = 10
	DefaultMaxQueueSize = 100

	MaxWorkers   = 1000
	MaxQueueSize = 10000
)

// TaskManager defines the interface for managing background crawl tasks
type TaskManager interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// SubmitCrawlTask queues a single-company crawl
	SubmitCrawlTask(ctx context.Context, processID, company string, opts crawler.RunOptions) error

	// SubmitCrawlAllTask queues a crawl across every registered company
	SubmitCrawlAllTask(ctx context.Context, processID string, opts crawler.RunOptions) error

	GetTaskResult(ctx context.Context, processID string) (*TaskResult, error)
	GetTaskStatus(ctx context.Context, processID string) (models.TaskStatus, error)
	ListTasks(ctx context.Context) ([]*TaskResult, error)
	IsHealthy() bool
}

// TaskManagerImpl implements TaskManager over an in-memory store and a
// fixed worker pool
type TaskManagerImpl struct {
	config       *config.Config
	orchestrator *crawler.Orchestrator
	store        TaskStore
	logger       *TaskCompletionLogger
	appLogger    types.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	running      bool
	taskChan     chan *taskExecution
	maxWorkers   int
	maxQueueSize int
}

type taskExecution struct {
	ProcessID   string
	Type        TaskType
	Context     context.Context
	Cancel      context.CancelFunc
	ExecuteFunc func(context.Context) (*TaskResult, error)
}

func validateTaskManagerConfig(cfg *config.Config) (maxWorkers, maxQueueSize int, err error) {
	maxWorkers = cfg.BackgroundTasks.MaxConcurrentTasks
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	} else if maxWorkers > MaxWorkers {
		return 0, 0, fmt.Errorf("worker pool size (%d) exceeds maximum (%d)", maxWorkers, MaxWorkers)
	}

	maxQueueSize = DefaultMaxQueueSize
	return maxWorkers, maxQueueSize, nil
}

// NewTaskManager creates a new task manager over the given orchestrator
func NewTaskManager(cfg *config.Config, orch *crawler.Orchestrator) *TaskManagerImpl {
	logger := logging.GetGlobalLogger()

	maxWorkers, maxQueueSize, err := validateTaskManagerConfig(cfg)
	if err != nil {
		logger.Warn("Task manager configuration invalid, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		maxWorkers = DefaultMaxWorkers
		maxQueueSize = DefaultMaxQueueSize
	}

	return &TaskManagerImpl{
		config:       cfg,
		orchestrator: orch,
		store:        NewInMemoryTaskStore(),
		logger:       NewTaskCompletionLogger(),
		appLogger:    logger,
		maxWorkers:   maxWorkers,
		maxQueueSize: maxQueueSize,
		taskChan:     make(chan *taskExecution, maxQueueSize),
	}
}

// Start starts the task manager workers
func (tm *TaskManagerImpl) Start(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.running {
		return fmt.Errorf("task manager already running")
	}

	tm.ctx, tm.cancel = context.WithCancel(ctx)
	tm.running = true

	for i := 0; i < tm.maxWorkers; i++ {
		tm.wg.Add(1)
		go tm.worker(i)
	}

	tm.wg.Add(1)
	go tm.cleanupRoutine()

	tm.appLogger.Info("Task manager started", map[string]interface{}{
		"max_workers": tm.maxWorkers,
	})
	return nil
}

// Stop stops the task manager gracefully
func (tm *TaskManagerImpl) Stop(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if !tm.running {
		return nil
	}

	// The task channel is never closed; workers exit on the canceled
	// context so a racing submit can never send on a closed channel
	tm.cancel()

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		tm.appLogger.Info("Task manager stopped gracefully", nil)
	case <-ctx.Done():
		tm.appLogger.Warn("Task manager shutdown timed out", nil)
	}

	tm.running = false
	return nil
}

// SubmitCrawlTask queues a single-company crawl for background processing
func (tm *TaskManagerImpl) SubmitCrawlTask(ctx context.Context, processID, company string, opts crawler.RunOptions) error {
	return tm.submit(ctx, processID, TaskTypeCrawl, map[string]interface{}{
		"company": company,
	}, func(execCtx context.Context) (*TaskResult, error) {
		return tm.executeCrawlTask(execCtx, processID, company, opts)
	})
}

// SubmitCrawlAllTask queues a crawl across every registered company
func (tm *TaskManagerImpl) SubmitCrawlAllTask(ctx context.Context, processID string, opts crawler.RunOptions) error {
	return tm.submit(ctx, processID, TaskTypeCrawlAll, map[string]interface{}{
		"companies": tm.orchestrator.Registry().ListNames(),
	}, func(execCtx context.Context) (*TaskResult, error) {
		return tm.executeCrawlAllTask(execCtx, processID, opts)
	})
}

func (tm *TaskManagerImpl) submit(ctx context.Context, processID string, taskType TaskType, metadata map[string]interface{}, execute func(context.Context) (*TaskResult, error)) error {
	if !tm.IsHealthy() {
		return fmt.Errorf("task manager is not healthy")
	}

	result := &TaskResult{
		ProcessID: processID,
		Type:      taskType,
		Status:    models.TaskStatusAccepted,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}
	if err := tm.store.Store(ctx, result); err != nil {
		return fmt.Errorf("failed to store task result: %w", err)
	}

	// Held across the enqueue so a concurrent Stop, which takes the write
	// lock, cannot tear the manager down between the re-check and the send
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if !tm.running || tm.ctx.Err() != nil {
		return fmt.Errorf("task manager is shutting down")
	}

	// Derived context keeps the task cancellable with the manager while
	// isolating it from the submitting request's lifetime
	taskCtx, cancelFunc := context.WithCancel(tm.ctx)
	if timeout := tm.config.BackgroundTasks.TaskTimeout; timeout > 0 {
		taskCtx, cancelFunc = context.WithTimeout(tm.ctx, timeout)
	}

	execution := &taskExecution{
		ProcessID:   processID,
		Type:        taskType,
		Context:     taskCtx,
		Cancel:      cancelFunc,
		ExecuteFunc: execute,
	}

	select {
	case tm.taskChan <- execution:
		return nil
	case <-ctx.Done():
		cancelFunc()
		return ctx.Err()
	default:
		cancelFunc()
		return fmt.Errorf("task queue is full")
	}
}

// GetTaskResult retrieves the result of a task by process ID
func (tm *TaskManagerImpl) GetTaskResult(ctx context.Context, processID string) (*TaskResult, error) {
	return tm.store.Get(ctx, processID)
}

// GetTaskStatus retrieves the status of a task by process ID
func (tm *TaskManagerImpl) GetTaskStatus(ctx context.Context, processID string) (models.TaskStatus, error) {
	result, err := tm.store.Get(ctx, processID)
	if err != nil {
		return "", err
	}
	return result.Status, nil
}

// ListTasks lists all tracked tasks
func (tm *TaskManagerImpl) ListTasks(ctx context.Context) ([]*TaskResult, error) {
	return tm.store.List(ctx)
}

// IsHealthy checks if the task manager is accepting work
func (tm *TaskManagerImpl) IsHealthy() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.running && tm.ctx.Err() == nil
}

func (tm *TaskManagerImpl) worker(workerID int) {
	defer tm.wg.Done()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case task := <-tm.taskChan:
			tm.processTask(workerID, task)
		}
	}
}

// processTask runs one task to completion and records the terminal state
func (tm *TaskManagerImpl) processTask(workerID int, task *taskExecution) {
	startTime := time.Now()

	tm.appLogger.Info("Processing task", map[string]interface{}{
		"worker_id":  workerID,
		"process_id": task.ProcessID,
		"task_type":  task.Type,
	})

	if err := tm.updateTaskStatus(task.ProcessID, models.TaskStatusProcessing); err != nil {
		tm.appLogger.Error("Failed to mark task processing", map[string]interface{}{
			"error": err.Error(),
		})
	}

	result, err := task.ExecuteFunc(task.Context)
	processingTime := time.Since(startTime)

	if err != nil {
		existing, getErr := tm.store.Get(task.Context, task.ProcessID)
		if getErr != nil {
			existing = &TaskResult{
				ProcessID: task.ProcessID,
				Type:      task.Type,
				CreatedAt: time.Now(),
			}
		}
		existing.Status = models.TaskStatusFailure
		existing.Error = err.Error()
		existing.ProcessingTime = &processingTime
		result = existing

		tm.appLogger.Error("Task execution failed", map[string]interface{}{
			"worker_id":  workerID,
			"process_id": task.ProcessID,
			"error":      err.Error(),
		})
	} else {
		result.Status = models.TaskStatusSuccess
		result.ProcessingTime = &processingTime
		completedAt := time.Now()
		result.CompletedAt = &completedAt
	}

	if err := tm.store.Update(context.Background(), result); err != nil {
		tm.appLogger.Error("Failed to store task result", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := tm.logger.LogTaskCompletion(result); err != nil {
		tm.appLogger.Error("Failed to log task completion", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if task.Cancel != nil {
		task.Cancel()
	}
}

func (tm *TaskManagerImpl) updateTaskStatus(processID string, status models.TaskStatus) error {
	result, err := tm.store.Get(context.Background(), processID)
	if err != nil {
		return err
	}
	result.Status = status
	return tm.store.Update(context.Background(), result)
}

// cleanupRoutine periodically prunes old task records
func (tm *TaskManagerImpl) cleanupRoutine() {
	defer tm.wg.Done()

	interval := tm.config.BackgroundTasks.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case <-ticker.C:
			maxAge := tm.config.BackgroundTasks.MaxTaskAge
			if maxAge <= 0 {
				maxAge = 24 * time.Hour
			}
			if err := tm.store.Cleanup(context.Background(), maxAge); err != nil {
				tm.appLogger.Error("Failed to cleanup old task results", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// executeCrawlTask runs a single-company crawl
func (tm *TaskManagerImpl) executeCrawlTask(ctx context.Context, processID, company string, opts crawler.RunOptions) (*TaskResult, error) {
	existing, err := tm.store.Get(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve existing task result: %w", err)
	}

	crawlResult := tm.orchestrator.CrawlCompany(ctx, company, opts)
	existing.Result = crawlResult
	if !crawlResult.Success && crawlResult.Error != "" {
		return nil, fmt.Errorf("crawl failed: %s", crawlResult.Error)
	}
	return existing, nil
}

// executeCrawlAllTask runs every registered adapter
func (tm *TaskManagerImpl) executeCrawlAllTask(ctx context.Context, processID string, opts crawler.RunOptions) (*TaskResult, error) {
	existing, err := tm.store.Get(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve existing task result: %w", err)
	}

	existing.Results = tm.orchestrator.CrawlAll(ctx, opts)
	return existing, nil
}
