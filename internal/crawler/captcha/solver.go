package captcha

import (
	"context"
	"fmt"
	"time"

	api2captcha "github.com/2captcha/2captcha-go"

	"jobsnap/internal/config"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
)

// Solver interface for captcha solving services
type Solver interface {
	SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error)
	SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error)
	IsHealthy() bool
}

// TwoCaptchaSolver implements 2CAPTCHA service integration
type TwoCaptchaSolver struct {
	config *config.Config
	client *api2captcha.Client
	logger types.Logger
}

// NewTwoCaptchaSolver creates a new 2CAPTCHA solver instance
func NewTwoCaptchaSolver(cfg *config.Config) *TwoCaptchaSolver {
	logger := logging.GetGlobalLogger().WithField("component", "2captcha")

	if cfg.Crawler.Captcha.APIKey == "" {
		logger.Warn("2CAPTCHA API key not configured, captcha solving disabled")
	}

	client := api2captcha.NewClient(cfg.Crawler.Captcha.APIKey)
	client.DefaultTimeout = int(cfg.Crawler.Captcha.Timeout.Seconds())
	client.RecaptchaTimeout = int(cfg.Crawler.Captcha.Timeout.Seconds())
	client.PollingInterval = 5

	return &TwoCaptchaSolver{
		config: cfg,
		client: client,
		logger: logger,
	}
}

// SolveRecaptcha solves a reCAPTCHA v2 challenge
func (s *TwoCaptchaSolver) SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error) {
	if !s.config.Crawler.Captcha.EnableAutoSolve {
		return "", fmt.Errorf("captcha auto-solve is disabled")
	}
	if s.config.Crawler.Captcha.APIKey == "" {
		return "", fmt.Errorf("2CAPTCHA API key not configured")
	}

	start := time.Now()
	captcha := api2captcha.ReCaptcha{
		SiteKey: siteKey,
		Url:     pageURL,
	}

	code, _, err := s.client.Solve(captcha.ToRequest())
	if err != nil {
		return "", fmt.Errorf("failed to solve reCAPTCHA: %w", err)
	}

	s.logger.Info("Solved reCAPTCHA", map[string]interface{}{
		"page_url":     pageURL,
		"solving_time": time.Since(start).String(),
	})
	return code, nil
}

// SolveTurnstile solves a Cloudflare Turnstile challenge
func (s *TwoCaptchaSolver) SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error) {
	if !s.config.Crawler.Captcha.EnableAutoSolve {
		return "", fmt.Errorf("captcha auto-solve is disabled")
	}
	if s.config.Crawler.Captcha.APIKey == "" {
		return "", fmt.Errorf("2CAPTCHA API key not configured")
	}

	start := time.Now()
	captcha := api2captcha.CloudflareTurnstile{
		SiteKey: siteKey,
		Url:     pageURL,
	}

	code, captchaID, err := s.client.Solve(captcha.ToRequest())
	if err != nil {
		s.logger.Error("Failed to solve Cloudflare Turnstile", map[string]interface{}{
			"page_url":   pageURL,
			"captcha_id": captchaID,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("failed to solve Cloudflare Turnstile: %w", err)
	}

	s.logger.Info("Solved Cloudflare Turnstile", map[string]interface{}{
		"page_url":     pageURL,
		"solving_time": time.Since(start).String(),
	})
	return code, nil
}

// IsHealthy checks if the 2CAPTCHA service is reachable and funded
func (s *TwoCaptchaSolver) IsHealthy() bool {
	if s.config.Crawler.Captcha.APIKey == "" {
		return false
	}

	balance, err := s.client.GetBalance()
	if err != nil {
		s.logger.Debug("2CAPTCHA health check failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return balance > 0
}
