package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"jobsnap/internal/capture"
	"jobsnap/internal/config"
	"jobsnap/internal/crawler"
	"jobsnap/internal/crawler/captcha"
	"jobsnap/internal/crawler/sites"
	"jobsnap/internal/fetch"
	"jobsnap/internal/logging"
	"jobsnap/internal/storage"
	"jobsnap/internal/workers"
	"jobsnap/pkg/models"
	"jobsnap/pkg/utils"
)

func usage() {
	fmt.Fprintf(os.Stderr, `jobsnap - job posting crawler

Usage:
  jobsnap run [flags]    crawl one or all registered companies
  jobsnap list [flags]   list registered company adapters

Run flags:
  -company <name>   company to crawl (e.g. Naver, Kakao, HyundaiAutoEver)
  -all              crawl every registered company
  -max-jobs <n>     cap the number of postings per company
  -format <fmt>     capture format: image or pdf
  -headless=<bool>  override headless mode
  -output <path>    result JSON path, - for stdout (default crawl_result.json)
  -config <path>    config file (default configs/config.yaml)
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		runCommand(os.Args[2:])
	case "list":
		listCommand(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func loadEnvironment(configPath string) (*config.Config, *crawler.Orchestrator, *workers.RateLimiter, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("initialize logging: %w", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize storage: %w", err)
	}

	solver := captcha.NewTwoCaptchaSolver(cfg)
	registry := crawler.NewRegistry()
	if err := sites.RegisterAll(registry, cfg, solver); err != nil {
		return nil, nil, nil, fmt.Errorf("register site adapters: %w", err)
	}

	limiter := workers.NewRateLimiter(cfg)
	orch := crawler.NewOrchestrator(cfg, registry, capture.NewRodService(cfg), store)
	orch.SetRateLimiter(limiter)

	if cfg.Firecrawl.Enabled {
		if fetcher, err := fetch.NewFirecrawlFetcher(cfg); err == nil {
			orch.SetFallbackFetcher(fetcher)
		}
	}
	return cfg, orch, limiter, nil
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	company := fs.String("company", "", "company to crawl")
	all := fs.Bool("all", false, "crawl every registered company")
	maxJobs := fs.Int("max-jobs", 0, "cap the number of postings per company")
	format := fs.String("format", "", "capture format: image or pdf")
	headless := fs.Bool("headless", true, "run the browser headless")
	output := fs.String("output", "", "result JSON path, - for stdout (default crawl_result.json)")
	configPath := fs.String("config", "configs/config.yaml", "config file path")
	_ = fs.Parse(args)

	if !*all && *company == "" {
		fmt.Fprintln(os.Stderr, "either -company or -all is required")
		fs.Usage()
		os.Exit(2)
	}

	cfg, orch, limiter, err := loadEnvironment(*configPath)
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}
	defer logging.CloseLogging()
	defer limiter.Stop()

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cfg.Crawler.HeadlessMode = *headless
		}
	})
	if *format != "" {
		cfg.Capture.Format = *format
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := crawler.RunOptions{
		MaxJobs:       *maxJobs,
		CaptureFormat: *format,
	}

	var artifact interface{}
	if *all {
		results := orch.CrawlAll(ctx, opts)
		recordRuns(ctx, cfg, results)
		artifact = results
	} else {
		result := orch.CrawlCompany(ctx, *company, opts)
		recordRuns(ctx, cfg, map[string]*models.CrawlResult{result.CompanyName: result})
		artifact = result
	}

	// The run result is the artifact of record; a crawl with zero
	// postings still produces one and the process still exits normally
	if err := emitArtifact(artifact, *output); err != nil {
		log.Fatalf("write result: %v", err)
	}
}

func listCommand(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "config file path")
	_ = fs.Parse(args)

	_, orch, limiter, err := loadEnvironment(*configPath)
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}
	defer logging.CloseLogging()
	defer limiter.Stop()

	for _, name := range orch.Registry().ListNames() {
		fmt.Println(name)
	}
}

// recordRuns persists run summaries to redis when the integration is on.
// History is best effort; failures only log.
func recordRuns(ctx context.Context, cfg *config.Config, results map[string]*models.CrawlResult) {
	if !cfg.Redis.Enabled {
		return
	}

	client := utils.NewRedisClient(cfg)
	defer client.Close()

	logger := logging.GetGlobalLogger()
	for company, result := range results {
		runID, err := client.RecordRun(ctx, result)
		if err != nil {
			logger.Warn("Failed to record run history", map[string]interface{}{
				"company": company,
				"error":   err.Error(),
			})
			continue
		}
		logger.Info("Run recorded", map[string]interface{}{
			"company": company,
			"run_id":  runID,
		})
	}
}

// defaultOutputPath is where the run result lands when -output is not given
const defaultOutputPath = "crawl_result.json"

func emitArtifact(artifact interface{}, outputPath string) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}

	switch outputPath {
	case "-":
		fmt.Println(string(data))
		return nil
	case "":
		outputPath = defaultOutputPath
	}
	return os.WriteFile(outputPath, append(data, '\n'), 0o644)
}
