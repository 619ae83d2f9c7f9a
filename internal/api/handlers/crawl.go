package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"jobsnap/internal/background"
	"jobsnap/internal/config"
	"jobsnap/internal/crawler"
	"jobsnap/internal/logging"
	"jobsnap/pkg/models"
	"jobsnap/pkg/utils"
)

var validate = validator.New()

func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok && id != "" {
		return id
	}
	return utils.GenerateRequestID()
}

func runOptions(req *models.CrawlRequest) crawler.RunOptions {
	opts := crawler.RunOptions{}
	if req.Options != nil {
		opts.MaxJobs = req.Options.MaxJobs
		opts.CaptureFormat = req.Options.CaptureFormat
	}
	return opts
}

// CrawlHandler accepts a crawl request and hands it to the background
// task manager, returning the task ID immediately
func CrawlHandler(cfg *config.Config, taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		logger := logging.GetGlobalLogger().WithField("request_id", reqID)

		var req models.CrawlRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind crawl request", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		if !req.All && req.Company == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   "either company or all must be set",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		taskID := utils.GenerateRequestID()
		ctx := c.Request().Context()

		var err error
		if req.All {
			err = taskManager.SubmitCrawlAllTask(ctx, taskID, runOptions(&req))
		} else {
			err = taskManager.SubmitCrawlTask(ctx, taskID, req.Company, runOptions(&req))
		}
		if err != nil {
			logger.Error("Failed to submit crawl task", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "task_submission_failed",
				Message:   err.Error(),
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Crawl task accepted", map[string]interface{}{
			"task_id": taskID,
			"company": req.Company,
			"all":     req.All,
		})
		return c.JSON(http.StatusAccepted, models.CreateAsyncCrawlResponse(taskID))
	}
}

// CrawlStatusHandler returns the current state of a crawl task
func CrawlStatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		taskID := c.Param("task_id")

		result, err := taskManager.GetTaskResult(c.Request().Context(), taskID)
		if err != nil {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "task_not_found",
				Message:   "No task with the given ID",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.TaskStatusResponse{
			TaskID:         result.ProcessID,
			Status:         result.Status,
			Result:         result.Result,
			Results:        result.Results,
			Error:          result.Error,
			CreatedAt:      result.CreatedAt,
			CompletedAt:    result.CompletedAt,
			ProcessingTime: result.ProcessingTime,
		})
	}
}

// CrawlSyncHandler runs a single-company crawl inline and returns the
// full result. Intended for small runs and debugging; big crawls should
// go through the async endpoint.
func CrawlSyncHandler(cfg *config.Config, orch *crawler.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)

		var req models.CrawlRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}
		if req.Company == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   "company is required",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		result := orch.CrawlCompany(c.Request().Context(), req.Company, runOptions(&req))
		response := models.CrawlResponse{
			Success:   result.Success,
			Result:    result,
			Error:     result.Error,
			RequestID: reqID,
		}

		code := http.StatusOK
		if !result.Success && result.Error != "" {
			code = http.StatusNotFound
		}
		return c.JSON(code, response)
	}
}

// CompaniesHandler lists the registered company adapters
func CompaniesHandler(orch *crawler.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		names := orch.Registry().ListNames()
		return c.JSON(http.StatusOK, models.CompanyListResponse{
			Companies: names,
			Count:     len(names),
		})
	}
}
