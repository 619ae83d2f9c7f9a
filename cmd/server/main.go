package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"jobsnap/internal/api/routes"
	"jobsnap/internal/background"
	"jobsnap/internal/capture"
	"jobsnap/internal/config"
	"jobsnap/internal/crawler"
	"jobsnap/internal/crawler/captcha"
	"jobsnap/internal/crawler/sites"
	"jobsnap/internal/fetch"
	"jobsnap/internal/logging"
	"jobsnap/internal/storage"
	"jobsnap/internal/workers"
	"jobsnap/pkg/utils"
)

func main() {
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting JobSnap crawler server", map[string]interface{}{
		"storage_backend": cfg.Storage.Backend,
	})

	store, err := storage.New(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	solver := captcha.NewTwoCaptchaSolver(cfg)

	registry := crawler.NewRegistry()
	if err := sites.RegisterAll(registry, cfg, solver); err != nil {
		logger.Error("Failed to register site adapters", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	limiter := workers.NewRateLimiter(cfg)
	defer limiter.Stop()

	orch := crawler.NewOrchestrator(cfg, registry, capture.NewRodService(cfg), store)
	orch.SetRateLimiter(limiter)

	if cfg.Firecrawl.Enabled {
		fetcher, err := fetch.NewFirecrawlFetcher(cfg)
		if err != nil {
			logger.Warn("Firecrawl fallback disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			orch.SetFallbackFetcher(fetcher)
		}
	}

	taskManager := background.NewTaskManager(cfg, orch)
	ctx := context.Background()
	if err := taskManager.Start(ctx); err != nil {
		logger.Error("Failed to start task manager", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	var redisClient *utils.RedisClient
	if cfg.Redis.Enabled {
		redisClient = utils.NewRedisClient(cfg)
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.Timeout)
		if err := redisClient.Ping(pingCtx); err != nil {
			logger.Warn("Redis unreachable, run history disabled", map[string]interface{}{
				"error": err.Error(),
			})
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
		cancel()
	}

	e := echo.New()
	e.HideBanner = true

	routes.SetupRoutes(e, routes.Dependencies{
		Config:       cfg,
		Orchestrator: orch,
		TaskManager:  taskManager,
		Limiter:      limiter,
		Solver:       solver,
		Redis:        redisClient,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := taskManager.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping task manager", map[string]interface{}{
				"error": err.Error(),
			})
		}

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{
		"address": address,
	})

	if err := e.Start(address); err != nil {
		logger.Info("Server stopped", map[string]interface{}{
			"reason": err.Error(),
		})
	}
}
