package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobsnap/pkg/models"
	"jobsnap/pkg/utils"
)

// RunHistoryHandler lists recorded crawl runs for a company, newest first
func RunHistoryHandler(redis *utils.RedisClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		if redis == nil {
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "history_unavailable",
				Message:   "Run history requires the redis integration to be enabled",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		company := c.Param("company")
		runs, err := redis.ListRuns(c.Request().Context(), company)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "history_lookup_failed",
				Message:   err.Error(),
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"company": company,
			"count":   len(runs),
			"runs":    runs,
		})
	}
}

// RunDetailHandler returns one recorded crawl run
func RunDetailHandler(redis *utils.RedisClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)
		if redis == nil {
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "history_unavailable",
				Message:   "Run history requires the redis integration to be enabled",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		record, err := redis.GetRun(c.Request().Context(), c.Param("company"), c.Param("run_id"))
		if err != nil {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "run_not_found",
				Message:   err.Error(),
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}
		return c.JSON(http.StatusOK, record)
	}
}
