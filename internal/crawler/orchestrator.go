package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobsnap/internal/capture"
	"jobsnap/internal/config"
	"jobsnap/internal/crawler/browser"
	"jobsnap/internal/fetch"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
	"jobsnap/internal/storage"
	"jobsnap/internal/workers"
	"jobsnap/pkg/models"
	"jobsnap/pkg/utils"
)

// SessionFactory opens a browser session for one site run. Swapped for a
// fake in tests.
type SessionFactory func(ctx context.Context) (browser.Session, error)

// RunOptions tune a single crawl invocation
type RunOptions struct {
	MaxJobs       int // 0 means use the configured cap
	CaptureFormat string
}

// Orchestrator drives the crawl pipeline for registered sites: discover
// references, fan out detail parsing, fan out capture and persistence,
// aggregate a CrawlResult. Per-job failures are recorded and never abort
// the run; only a failed adapter lookup produces a failed result.
type Orchestrator struct {
	config     *config.Config
	registry   *Registry
	capture    capture.Service
	store      storage.Store
	newSession SessionFactory
	limiter    *workers.RateLimiter
	fallback   fetch.Fetcher
	logger     types.Logger
}

// NewOrchestrator creates an orchestrator over the given registry and collaborators
func NewOrchestrator(cfg *config.Config, registry *Registry, cap capture.Service, store storage.Store) *Orchestrator {
	return &Orchestrator{
		config:   cfg,
		registry: registry,
		capture:  cap,
		store:    store,
		newSession: func(ctx context.Context) (browser.Session, error) {
			mgr := browser.NewManager(cfg)
			if err := mgr.Start(ctx); err != nil {
				return nil, err
			}
			return mgr, nil
		},
		logger: logging.GetGlobalLogger(),
	}
}

// SetSessionFactory overrides how browser sessions are created
func (o *Orchestrator) SetSessionFactory(f SessionFactory) {
	o.newSession = f
}

// SetRateLimiter attaches a per-domain navigation throttle. Without one,
// detail parses run at the adapter's concurrency ceiling unthrottled.
func (o *Orchestrator) SetRateLimiter(rl *workers.RateLimiter) {
	o.limiter = rl
}

// SetFallbackFetcher attaches a remote HTML fetcher used when headed
// navigation for a posting exhausts its retries
func (o *Orchestrator) SetFallbackFetcher(f fetch.Fetcher) {
	o.fallback = f
}

// Registry exposes the adapter registry for listing
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// CrawlCompany runs the full pipeline for one registered company
func (o *Orchestrator) CrawlCompany(ctx context.Context, company string, opts RunOptions) *models.CrawlResult {
	start := time.Now()
	result := models.NewCrawlResult(company)
	logger := o.logger.WithField("company", company)

	adapter, ok := o.registry.Get(company)
	if !ok {
		// Structural failure, the only run-level failed outcome
		result.Success = false
		result.Error = utils.NewAdapterNotFoundError(company).Error()
		o.finalize(result, start)
		return result
	}

	sess, err := o.newSession(ctx)
	if err != nil {
		result.AddError(utils.NewNavigationError(fmt.Sprintf("browser session failed: %v", err)).Error())
		o.finalize(result, start)
		return result
	}
	defer sess.Close()

	refs := o.discover(ctx, sess, adapter, result)
	refs = o.clampMaxJobs(refs, opts, result)

	logger.Info("Discovery finished", map[string]interface{}{
		"references": len(refs),
	})

	postings := o.parseDetails(ctx, sess, adapter, refs, result)
	result.TotalJobs = len(postings)

	o.persistAll(ctx, sess, adapter, postings, opts, result)

	result.Success = result.TotalJobs > 0
	o.finalize(result, start)

	logger.Info("Crawl completed", map[string]interface{}{
		"total_jobs":       result.TotalJobs,
		"successful_saves": result.SuccessfulSaves,
		"failed_saves":     result.FailedSaves,
		"errors":           len(result.ErrorLogs),
		"duration":         utils.FormatDuration(result.Duration),
	})
	return result
}

// CrawlAll runs every registered adapter independently and in parallel.
// One site's failure never touches another; each run gets its own browser.
func (o *Orchestrator) CrawlAll(ctx context.Context, opts RunOptions) map[string]*models.CrawlResult {
	names := o.registry.ListNames()
	results := make(map[string]*models.CrawlResult, len(names))

	var mu sync.Mutex
	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			result := o.CrawlCompany(ctx, name, opts)
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// discover resolves the reference list. Any failure here degrades to an
// empty list plus an error log entry; the run still completes.
func (o *Orchestrator) discover(ctx context.Context, sess browser.Session, adapter Adapter, result *models.CrawlResult) []models.JobReference {
	page, err := sess.NewPage(ctx)
	if err != nil {
		result.AddError(utils.NewNavigationError(fmt.Sprintf("discovery page failed: %v", err)).Error())
		return nil
	}
	defer page.Close()

	refs, err := adapter.ExtractJobReferences(ctx, page)
	if err != nil {
		result.AddError(utils.NewNavigationError(fmt.Sprintf("discovery failed: %v", err)).Error())
		return nil
	}

	return DedupeReferences(refs)
}

func (o *Orchestrator) clampMaxJobs(refs []models.JobReference, opts RunOptions, result *models.CrawlResult) []models.JobReference {
	maxJobs := opts.MaxJobs
	if maxJobs <= 0 {
		maxJobs = o.config.Crawler.MaxJobs
	}
	if maxJobs > 0 && len(refs) > maxJobs {
		result.AddError(fmt.Sprintf("reference list clamped from %d to %d jobs", len(refs), maxJobs))
		refs = refs[:maxJobs]
	}
	return refs
}

// parseDetails fans out detail parsing bounded by the adapter's declared
// concurrency. Results land in per-reference slots; aggregation happens
// after the join so only one goroutine ever touches the CrawlResult.
func (o *Orchestrator) parseDetails(ctx context.Context, sess browser.Session, adapter Adapter, refs []models.JobReference, result *models.CrawlResult) []*models.JobPosting {
	if len(refs) == 0 {
		return nil
	}

	limit := adapter.MaxConcurrentJobs()
	if limit < 1 {
		limit = 1
	}

	parsed := make([]*models.JobPosting, len(refs))
	parseErrs := make([]error, len(refs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			parsed[i], parseErrs[i] = o.parseOne(ctx, sess, adapter, ref, i)
			return nil
		})
	}
	_ = g.Wait()

	postings := make([]*models.JobPosting, 0, len(refs))
	for i, ref := range refs {
		if parseErrs[i] != nil {
			result.AddError(utils.NewNavigationError(fmt.Sprintf("parse failed for %s (index %d): %v", ref.URL, i, parseErrs[i])).Error())
			continue
		}
		if parsed[i] != nil {
			postings = append(postings, parsed[i])
		}
	}
	return postings
}

// parseOne runs one detail parse on a worker-owned page, retrying
// transient failures up to the adapter's advisory count. The page is
// always closed, success or failure.
func (o *Orchestrator) parseOne(ctx context.Context, sess browser.Session, adapter Adapter, ref models.JobReference, index int) (*models.JobPosting, error) {
	attempts := adapter.RetryCount()
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if o.limiter != nil && !o.limiter.WaitURL(ref.URL, adapter.Timeout()) {
			lastErr = utils.NewTimeoutError(fmt.Sprintf("navigation to %s throttled by rate limiter", ref.URL))
			continue
		}

		page, err := sess.NewPage(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		posting, err := adapter.ParseJobDetail(ctx, page, ref.URL, index)
		closeErr := page.Close()
		if o.limiter != nil {
			domain := workers.DomainFromURL(ref.URL)
			if err != nil {
				o.limiter.RecordFailure(domain, err)
			} else {
				o.limiter.RecordSuccess(domain)
			}
		}
		if err == nil && posting != nil {
			if closeErr != nil {
				o.logger.Debug("Page close failed after parse", map[string]interface{}{
					"url":   ref.URL,
					"error": closeErr.Error(),
				})
			}
			return posting, nil
		}
		if err == nil {
			err = fmt.Errorf("adapter returned no posting")
		}
		lastErr = err

		o.logger.Debug("Detail parse attempt failed", map[string]interface{}{
			"url":     ref.URL,
			"attempt": attempt,
			"error":   err.Error(),
		})
	}

	if posting, ok := o.parseViaFallback(ctx, adapter, ref, index); ok {
		return posting, nil
	}
	return nil, lastErr
}

// parseViaFallback fetches the posting HTML remotely and parses it
// without a page, when both the fetcher and the adapter support it
func (o *Orchestrator) parseViaFallback(ctx context.Context, adapter Adapter, ref models.JobReference, index int) (*models.JobPosting, bool) {
	if o.fallback == nil {
		return nil, false
	}
	parser, ok := adapter.(HTMLParser)
	if !ok {
		return nil, false
	}

	html, err := o.fallback.FetchHTML(ctx, ref.URL)
	if err != nil {
		o.logger.Debug("Fallback fetch failed", map[string]interface{}{
			"url":   ref.URL,
			"error": err.Error(),
		})
		return nil, false
	}

	posting, err := parser.ParseJobHTML(html, ref.URL, index)
	if err != nil || posting == nil {
		return nil, false
	}

	o.logger.Info("Posting recovered via fallback fetch", map[string]interface{}{
		"url": ref.URL,
	})
	return posting, true
}

// persistAll fans out capture and storage. The ceiling is independently
// configurable; without a configured value it reuses the adapter's parse
// ceiling. Slots are aggregated after the join, preserving reference
// order in the storage results.
func (o *Orchestrator) persistAll(ctx context.Context, sess browser.Session, adapter Adapter, postings []*models.JobPosting, opts RunOptions, result *models.CrawlResult) {
	if len(postings) == 0 {
		return
	}

	limit := o.config.Storage.MaxConcurrentSaves
	if limit < 1 {
		limit = adapter.MaxConcurrentJobs()
	}
	if limit < 1 {
		limit = 1
	}

	slots := make([]models.StorageResult, len(postings))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, posting := range postings {
		i, posting := i, posting
		g.Go(func() error {
			slots[i] = o.persistOne(ctx, sess, posting, opts)
			return nil
		})
	}
	_ = g.Wait()

	for _, sr := range slots {
		result.AddStorageResult(sr)
		if !sr.Success && sr.Error != "" {
			result.AddError(fmt.Sprintf("storage failed for %s: %s", sr.JobID, sr.Error))
		}
	}
}

// persistOne stores one posting: HTML unconditionally, the snapshot only
// when bytes exist, and a JSON metadata sidecar. Capture failure is soft;
// the posting is still persisted without a snapshot.
func (o *Orchestrator) persistOne(ctx context.Context, sess browser.Session, posting *models.JobPosting, opts RunOptions) models.StorageResult {
	sr := models.StorageResult{
		JobID: posting.JobID,
		Title: posting.Title,
	}
	now := time.Now()

	if len(posting.ScreenshotBytes) == 0 && o.capture != nil {
		captureOpts := o.captureOptions(opts)
		data, err := o.capture.Capture(ctx, sess, posting.URL, captureOpts)
		if err != nil {
			o.logger.Warn("Snapshot capture failed, persisting without it", map[string]interface{}{
				"job_id": posting.JobID,
				"url":    posting.URL,
				"error":  utils.NewCaptureError(err.Error()).Error(),
			})
		} else {
			posting.ScreenshotBytes = data
		}
	}

	htmlPath, err := o.store.SaveHTML(ctx, posting.HTMLContent, posting.Company, posting.JobID, posting.Title, now)
	if err != nil {
		sr.Error = utils.NewStorageError(err.Error()).Error()
		return sr
	}
	sr.HTMLPath = htmlPath

	if len(posting.ScreenshotBytes) > 0 {
		kind := storage.KindScreenshot
		if o.captureOptions(opts).Format == capture.FormatPDF {
			kind = storage.KindPDF
		}
		shotPath, err := o.store.SaveBinary(ctx, posting.ScreenshotBytes, posting.Company, posting.JobID, posting.Title, now, kind)
		if err != nil {
			o.logger.Warn("Snapshot persistence failed", map[string]interface{}{
				"job_id": posting.JobID,
				"error":  err.Error(),
			})
		} else {
			sr.ScreenshotPath = shotPath
		}
	}

	if metaPath, err := o.saveMetadata(ctx, posting, now); err == nil {
		sr.MetadataPath = metaPath
	}

	// Binary payloads are not retained once written
	posting.ScreenshotBytes = nil

	sr.Success = true
	return sr
}

// saveMetadata writes the structured fields as a JSON sidecar. The HTML
// is stored separately, so the sidecar carries everything except it.
func (o *Orchestrator) saveMetadata(ctx context.Context, posting *models.JobPosting, now time.Time) (string, error) {
	meta := *posting
	meta.HTMLContent = ""
	meta.ScreenshotBytes = nil

	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return "", err
	}
	return o.store.SaveBinary(ctx, data, posting.Company, posting.JobID, posting.Title, now, storage.KindMetadata)
}

func (o *Orchestrator) captureOptions(opts RunOptions) capture.Options {
	format := capture.FormatImage
	switch {
	case opts.CaptureFormat == "pdf":
		format = capture.FormatPDF
	case opts.CaptureFormat == "":
		if o.config.Capture.Format == "pdf" {
			format = capture.FormatPDF
		}
	}
	return capture.Options{
		Format:     format,
		FullPage:   o.config.Capture.FullPage,
		Quality:    o.config.Capture.ImageQuality,
		WaitBefore: o.config.Capture.WaitBefore,
		ScrollLazy: true,
	}
}

func (o *Orchestrator) finalize(result *models.CrawlResult, start time.Time) {
	result.Duration = time.Since(start)
	result.CompletedAt = time.Now()
}
