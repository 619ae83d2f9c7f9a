package browser

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"jobsnap/internal/config"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
)

// Session provides hardened pages for one site run. Implemented by
// Manager; faked in tests.
type Session interface {
	NewPage(ctx context.Context) (*Page, error)
	Close() error
}

// Manager owns one browser process and its pages for the duration of a
// site run. Every page it hands out already carries the stealth hardening,
// so adapters never deal with fingerprinting themselves.
type Manager struct {
	config   *config.Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	mu       sync.Mutex
	started  bool
	logger   types.Logger
}

// NewManager creates a new browser session manager
func NewManager(cfg *config.Config) *Manager {
	logger := logging.GetGlobalLogger()

	l := launcher.New().
		Headless(cfg.Crawler.HeadlessMode).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-web-security").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	// Use system-installed Chrome/Chromium instead of downloading
	if chromePath := getSystemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		logger.Info("Using system Chrome browser", map[string]interface{}{
			"chrome_path": chromePath,
		})
	} else {
		logger.Warn("System Chrome not found, Rod will download browser", map[string]interface{}{})
	}

	return &Manager{
		config:   cfg,
		launcher: l,
		logger:   logger,
	}
}

// Start launches the browser process and connects to it
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}

	url, err := m.launcher.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	m.browser = browser
	m.started = true
	m.logger.Info("Browser session started", map[string]interface{}{
		"headless": m.config.Crawler.HeadlessMode,
		"stealth":  m.config.Crawler.StealthMode,
	})
	return nil
}

// NewPage opens a hardened page within the shared browser context.
// All pages share cookie and storage state, so a consent dialog answered
// on one page stays answered on the rest.
func (m *Manager) NewPage(ctx context.Context) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil, fmt.Errorf("browser session not started")
	}

	var page *rod.Page
	var err error
	if m.config.Crawler.StealthMode {
		page, err = stealth.Page(m.browser)
	} else {
		page, err = m.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := m.hardenPage(page); err != nil {
		m.logger.Warn("Page hardening incomplete", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return &Page{rod: page, logger: m.logger}, nil
}

// hardenPage applies viewport, user agent and navigator spoofing to a fresh page
func (m *Manager) hardenPage(page *rod.Page) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	ua := m.pickUserAgent()
	if ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: "en-US,en;q=0.9,ko-KR;q=0.8",
		}); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	headers := []string{
		"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language", "en-US,en;q=0.9",
		"Upgrade-Insecure-Requests", "1",
	}
	if _, err := page.SetExtraHeaders(headers); err != nil {
		m.logger.Debug("Failed to set extra headers", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Mask the remaining automation tells that the stealth page misses
	return rod.Try(func() {
		page.MustEval(`() => {
			Object.defineProperty(navigator, 'webdriver', {
				get: () => undefined,
			});
			Object.defineProperty(navigator, 'plugins', {
				get: () => [1, 2, 3, 4, 5],
			});
			Object.defineProperty(navigator, 'languages', {
				get: () => ['en-US', 'en'],
			});
			window.chrome = window.chrome || { runtime: {} };
		}`)
	})
}

// pickUserAgent returns a random user agent from the configured pool
func (m *Manager) pickUserAgent() string {
	pool := m.config.Crawler.UserAgents
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.Intn(len(pool))]
}

// Close tears down the browser process and all its pages. Safe to call
// more than once and on a manager that never started.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil
	}
	m.started = false

	err := rod.Try(func() {
		m.browser.MustClose()
	})
	m.launcher.Cleanup()
	m.logger.Info("Browser session closed", map[string]interface{}{})

	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// getSystemChromePath finds the system-installed Chrome/Chromium browser
func getSystemChromePath() string {
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}

	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	commonPaths := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
