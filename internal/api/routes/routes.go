package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"jobsnap/internal/api/handlers"
	"jobsnap/internal/api/middleware"
	"jobsnap/internal/background"
	"jobsnap/internal/config"
	"jobsnap/internal/crawler"
	"jobsnap/internal/crawler/captcha"
	"jobsnap/internal/workers"
	"jobsnap/pkg/utils"
)

// Dependencies carries the collaborators the HTTP surface needs
type Dependencies struct {
	Config       *config.Config
	Orchestrator *crawler.Orchestrator
	TaskManager  background.TaskManager
	Limiter      *workers.RateLimiter
	Solver       captcha.Solver
	Redis        *utils.RedisClient
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Sync crawls hold the connection for the whole run; everything else
	// finishes well inside the read timeout
	e.Use(middleware.TimeoutConfig(10 * time.Minute))

	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.TaskManager, deps.Solver))
		health.GET("/live", handlers.LivenessHandler)
	}

	e.GET("/status", handlers.StatusHandler(deps.TaskManager))

	v1 := e.Group("/api/v1")
	{
		v1.POST("/crawl", handlers.CrawlHandler(deps.Config, deps.TaskManager))
		v1.GET("/crawl/:task_id", handlers.CrawlStatusHandler(deps.TaskManager))
		v1.POST("/crawl/sync", handlers.CrawlSyncHandler(deps.Config, deps.Orchestrator))

		v1.GET("/companies", handlers.CompaniesHandler(deps.Orchestrator))

		runs := v1.Group("/runs")
		{
			runs.GET("/:company", handlers.RunHistoryHandler(deps.Redis))
			runs.GET("/:company/:run_id", handlers.RunDetailHandler(deps.Redis))
		}

		if deps.Limiter != nil {
			domains := v1.Group("/domains")
			{
				domains.GET("/stats", handlers.AllDomainStatsHandler(deps.Limiter))
				domains.GET("/:domain/stats", handlers.DomainStatsHandler(deps.Limiter))
			}
		}
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "JobSnap Crawler",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
