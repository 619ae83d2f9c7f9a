package capture

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"jobsnap/internal/config"
	"jobsnap/internal/crawler/browser"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
)

// RodService captures snapshots by rendering the URL in a page from the
// run's browser session
type RodService struct {
	config *config.Config
	logger types.Logger
}

// NewRodService creates a rod-backed capture service
func NewRodService(cfg *config.Config) *RodService {
	return &RodService{
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// DefaultOptions builds capture options from configuration
func (s *RodService) DefaultOptions() Options {
	format := FormatImage
	if s.config.Capture.Format == "pdf" {
		format = FormatPDF
	}
	return Options{
		Format:     format,
		FullPage:   s.config.Capture.FullPage,
		Quality:    s.config.Capture.ImageQuality,
		WaitBefore: s.config.Capture.WaitBefore,
		ScrollLazy: true,
	}
}

// Capture renders the URL and returns snapshot bytes in the requested format
func (s *RodService) Capture(ctx context.Context, sess browser.Session, url string, opts Options) ([]byte, error) {
	page, err := sess.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, url, s.config.Crawler.NavigationTimeout); err != nil {
		return nil, err
	}

	if opts.WaitBefore > 0 {
		page.WaitSettle(opts.WaitBefore)
	}

	if opts.ScrollLazy {
		if err := page.HumanScroll(s.config.Crawler.MaxScrolls); err != nil {
			s.logger.Debug("Lazy-content scroll failed before capture", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
		}
		// Let images that just entered the viewport finish loading
		time.Sleep(500 * time.Millisecond)
	}

	switch opts.Format {
	case FormatPDF:
		return s.capturePDF(ctx, page)
	default:
		return s.captureImage(ctx, page, opts)
	}
}

func (s *RodService) captureImage(ctx context.Context, page *browser.Page, opts Options) ([]byte, error) {
	captureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	data, err := page.Rod().Context(captureCtx).Screenshot(opts.FullPage, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("screenshot capture produced no data")
	}
	return data, nil
}

func (s *RodService) capturePDF(ctx context.Context, page *browser.Page) ([]byte, error) {
	captureCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	printBackground := true
	reader, err := page.Rod().Context(captureCtx).PDF(&proto.PagePrintToPDF{
		PrintBackground: printBackground,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF stream: %w", err)
	}
	return data, nil
}
