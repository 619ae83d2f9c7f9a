package background

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsnap/internal/config"
	"jobsnap/internal/crawler"
	"jobsnap/pkg/models"
)

func newTestManager(t *testing.T) *TaskManagerImpl {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.BackgroundTasks.MaxConcurrentTasks = 2

	orch := crawler.NewOrchestrator(cfg, crawler.NewRegistry(), nil, nil)
	return NewTaskManager(cfg, orch)
}

func waitForTerminal(t *testing.T, tm *TaskManagerImpl, processID string) *TaskResult {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		result, err := tm.GetTaskResult(context.Background(), processID)
		require.NoError(t, err)
		if result.Status == models.TaskStatusSuccess || result.Status == models.TaskStatusFailure {
			return result
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task never reached a terminal status")
	return nil
}

func TestSubmitCrawlTaskLifecycle(t *testing.T) {
	tm := newTestManager(t)
	require.NoError(t, tm.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tm.Stop(ctx)
	}()

	// no adapter is registered, so the crawl fails structurally and the
	// task lands in FAILURE with the crawl error preserved
	err := tm.SubmitCrawlTask(context.Background(), "task-1", "NoSuchCompany", crawler.RunOptions{})
	require.NoError(t, err)

	result := waitForTerminal(t, tm, "task-1")
	assert.Equal(t, models.TaskStatusFailure, result.Status)
	assert.Contains(t, result.Error, "NoSuchCompany")
	assert.NotNil(t, result.ProcessingTime)
	assert.Equal(t, "NoSuchCompany", result.Metadata["company"])
}

func TestSubmitCrawlAllTaskSucceedsWithEmptyRegistry(t *testing.T) {
	tm := newTestManager(t)
	require.NoError(t, tm.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tm.Stop(ctx)
	}()

	require.NoError(t, tm.SubmitCrawlAllTask(context.Background(), "task-all", crawler.RunOptions{}))

	result := waitForTerminal(t, tm, "task-all")
	assert.Equal(t, models.TaskStatusSuccess, result.Status)
	assert.Empty(t, result.Results)
	assert.NotNil(t, result.CompletedAt)
}

func TestSubmitRejectedWhenNotRunning(t *testing.T) {
	tm := newTestManager(t)
	err := tm.SubmitCrawlTask(context.Background(), "task-x", "Naver", crawler.RunOptions{})
	assert.Error(t, err)
}

func TestSubmitDuringStopDoesNotPanic(t *testing.T) {
	tm := newTestManager(t)
	require.NoError(t, tm.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("task-%d-%d", i, j)
				_ = tm.SubmitCrawlTask(context.Background(), id, "Unknown", crawler.RunOptions{})
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tm.Stop(ctx))
	wg.Wait()

	err := tm.SubmitCrawlTask(context.Background(), "task-after-stop", "Unknown", crawler.RunOptions{})
	assert.Error(t, err)
}

func TestTaskStatusProgression(t *testing.T) {
	tm := newTestManager(t)
	require.NoError(t, tm.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tm.Stop(ctx)
	}()

	require.NoError(t, tm.SubmitCrawlTask(context.Background(), "task-2", "Unknown", crawler.RunOptions{}))

	status, err := tm.GetTaskStatus(context.Background(), "task-2")
	require.NoError(t, err)
	assert.Contains(t, []models.TaskStatus{
		models.TaskStatusAccepted,
		models.TaskStatusProcessing,
		models.TaskStatusFailure,
	}, status)

	waitForTerminal(t, tm, "task-2")
}

func TestInMemoryTaskStore(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	task := &TaskResult{
		ProcessID: "p1",
		Type:      TaskTypeCrawl,
		Status:    models.TaskStatusAccepted,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, store.Store(ctx, task))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusAccepted, got.Status)

	task.Status = models.TaskStatusSuccess
	require.NoError(t, store.Update(ctx, task))

	require.NoError(t, store.Cleanup(ctx, 24*time.Hour))
	_, err = store.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
