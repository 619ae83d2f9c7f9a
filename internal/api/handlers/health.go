package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobsnap/internal/background"
	"jobsnap/internal/crawler/captcha"
	"jobsnap/pkg/models"
)

var startTime = time.Now()

const serviceVersion = "1.0.0"

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}
	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler reports whether the service can accept crawl work
func ReadinessHandler(taskManager background.TaskManager, solver captcha.Solver) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{
			"api": "ok",
		}
		status := "ready"
		code := http.StatusOK

		if taskManager != nil {
			if taskManager.IsHealthy() {
				checks["tasks"] = "ok"
			} else {
				checks["tasks"] = "unavailable"
				status = "not_ready"
				code = http.StatusServiceUnavailable
			}
		}

		if solver != nil {
			if solver.IsHealthy() {
				checks["captcha"] = "ok"
			} else {
				// Degraded but still able to crawl sites without challenges
				checks["captcha"] = "degraded"
			}
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   serviceVersion,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Uptime:    time.Since(startTime),
	})
}

// StatusHandler provides detailed service status
func StatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{
			"api": "operational",
		}
		if taskManager != nil {
			if taskManager.IsHealthy() {
				checks["tasks"] = "operational"
				if tasks, err := taskManager.ListTasks(c.Request().Context()); err == nil {
					active := 0
					for _, t := range tasks {
						if t.Status == models.TaskStatusAccepted || t.Status == models.TaskStatusProcessing {
							active++
						}
					}
					if active > 0 {
						checks["active_tasks"] = "busy"
					} else {
						checks["active_tasks"] = "idle"
					}
				}
			} else {
				checks["tasks"] = "down"
			}
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "operational",
			Timestamp: time.Now(),
			Version:   serviceVersion,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}
