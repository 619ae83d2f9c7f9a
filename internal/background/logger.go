package background

import (
	"encoding/json"
	"fmt"
	"time"

	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
)

// TaskCompletionLogger emits one structured JSON line per finished task.
// Container orchestrators pick these up from stdout, so the line goes
// there directly in addition to the application log.
type TaskCompletionLogger struct {
	logger types.Logger
}

// NewTaskCompletionLogger creates a new task completion logger
func NewTaskCompletionLogger() *TaskCompletionLogger {
	return &TaskCompletionLogger{
		logger: logging.GetGlobalLogger(),
	}
}

// TaskCompletionLog represents the structured log entry for task completion
type TaskCompletionLog struct {
	ProcessID      string                 `json:"processId"`
	Status         string                 `json:"status"`
	Error          string                 `json:"error,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	Operation      string                 `json:"operation"`
	ProcessingTime string                 `json:"processing_time"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// LogTaskCompletion writes the completion record to stdout as JSON
func (l *TaskCompletionLogger) LogTaskCompletion(result *TaskResult) error {
	processingTimeStr := "0s"
	if result.ProcessingTime != nil {
		processingTimeStr = result.ProcessingTime.String()
	}

	logEntry := TaskCompletionLog{
		ProcessID:      result.ProcessID,
		Status:         string(result.Status),
		Error:          result.Error,
		Timestamp:      time.Now(),
		Operation:      string(result.Type),
		ProcessingTime: processingTimeStr,
		Metadata:       result.Metadata,
	}

	jsonData, err := json.Marshal(logEntry)
	if err != nil {
		l.logger.Error("Failed to marshal task completion log", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("failed to marshal task completion log: %w", err)
	}

	fmt.Println(string(jsonData))

	l.logger.Info("Task completed", map[string]interface{}{
		"process_id":      result.ProcessID,
		"status":          string(result.Status),
		"operation":       string(result.Type),
		"processing_time": processingTimeStr,
	})
	return nil
}
