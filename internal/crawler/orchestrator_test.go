package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsnap/internal/capture"
	"jobsnap/internal/config"
	"jobsnap/internal/crawler/browser"
	"jobsnap/internal/storage"
	"jobsnap/pkg/models"
)

// fakeAdapter implements Adapter without touching a browser
type fakeAdapter struct {
	name       string
	refs       []models.JobReference
	extractErr error
	failURLs   map[string]bool
	maxConc    int
	retries    int

	active    int32
	maxActive int32
}

func (a *fakeAdapter) CompanyName() string   { return a.name }
func (a *fakeAdapter) ListingURLs() []string { return []string{"https://example.com/jobs"} }

func (a *fakeAdapter) ExtractJobReferences(ctx context.Context, page *browser.Page) ([]models.JobReference, error) {
	if a.extractErr != nil {
		return nil, a.extractErr
	}
	return a.refs, nil
}

func (a *fakeAdapter) ParseJobDetail(ctx context.Context, page *browser.Page, url string, index int) (*models.JobPosting, error) {
	current := atomic.AddInt32(&a.active, 1)
	defer atomic.AddInt32(&a.active, -1)

	for {
		observed := atomic.LoadInt32(&a.maxActive)
		if current <= observed || atomic.CompareAndSwapInt32(&a.maxActive, observed, current) {
			break
		}
	}

	time.Sleep(5 * time.Millisecond)

	if a.failURLs[url] {
		return nil, fmt.Errorf("synthetic parse failure")
	}

	return &models.JobPosting{
		URL:         url,
		JobID:       fmt.Sprintf("job-%d", index),
		Company:     a.name,
		Title:       fmt.Sprintf("Engineer %d", index),
		HTMLContent: "<html><body>posting</body></html>",
		CreatedAt:   time.Now(),
	}, nil
}

func (a *fakeAdapter) WaitTime() time.Duration { return 0 }
func (a *fakeAdapter) Timeout() time.Duration  { return time.Second }
func (a *fakeAdapter) MaxConcurrentJobs() int {
	if a.maxConc == 0 {
		return 3
	}
	return a.maxConc
}
func (a *fakeAdapter) RetryCount() int {
	if a.retries == 0 {
		return 1
	}
	return a.retries
}

// fakeSession hands out empty pages; fake adapters never dereference them
type fakeSession struct {
	closed bool
}

func (s *fakeSession) NewPage(ctx context.Context) (*browser.Page, error) {
	return &browser.Page{}, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeCapture returns fixed bytes or an error
type fakeCapture struct {
	data []byte
	err  error
}

func (c *fakeCapture) Capture(ctx context.Context, sess browser.Session, url string, opts capture.Options) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.data, nil
}

// fakeStore keeps artifacts in memory
type fakeStore struct {
	mu       sync.Mutex
	htmlByID map[string]string
	failIDs  map[string]bool
	binaries int

	active    int32
	maxActive int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{htmlByID: make(map[string]string), failIDs: make(map[string]bool)}
}

func (s *fakeStore) SaveHTML(ctx context.Context, content string, company, jobID, title string, date time.Time) (string, error) {
	current := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)

	for {
		observed := atomic.LoadInt32(&s.maxActive)
		if current <= observed || atomic.CompareAndSwapInt32(&s.maxActive, observed, current) {
			break
		}
	}

	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[jobID] {
		return "", fmt.Errorf("synthetic storage failure")
	}
	s.htmlByID[jobID] = content
	return "/fake/" + jobID + ".html", nil
}

func (s *fakeStore) SaveBinary(ctx context.Context, data []byte, company, jobID, title string, date time.Time, kind storage.Kind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binaries++
	return "/fake/" + jobID + "." + kind.Ext(), nil
}

func makeRefs(n int) []models.JobReference {
	refs := make([]models.JobReference, 0, n)
	for i := 0; i < n; i++ {
		refs = append(refs, models.JobReference{
			URL:   fmt.Sprintf("https://example.com/jobs/%d", i),
			JobID: fmt.Sprintf("job-%d", i),
		})
	}
	return refs
}

func newTestOrchestrator(t *testing.T, adapters ...Adapter) (*Orchestrator, *fakeStore) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Capture.ImageQuality = 90

	reg := NewRegistry()
	for _, a := range adapters {
		require.NoError(t, reg.Register(a))
	}

	store := newFakeStore()
	o := NewOrchestrator(cfg, reg, &fakeCapture{data: []byte{1, 2, 3}}, store)
	o.SetSessionFactory(func(ctx context.Context) (browser.Session, error) {
		return &fakeSession{}, nil
	})
	return o, store
}

func TestCrawlCompanyAllSucceed(t *testing.T) {
	adapter := &fakeAdapter{name: "acme", refs: makeRefs(10), maxConc: 3}
	o, store := newTestOrchestrator(t, adapter)

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.True(t, result.Success)
	assert.Equal(t, 10, result.TotalJobs)
	assert.Equal(t, 10, result.SuccessfulSaves)
	assert.Equal(t, 0, result.FailedSaves)
	assert.Equal(t, result.SuccessfulSaves+result.FailedSaves, len(result.StorageResults))
	assert.Empty(t, result.ErrorLogs)
	assert.Len(t, store.htmlByID, 10)
	assert.LessOrEqual(t, adapter.maxActive, int32(3))
}

func TestCrawlCompanyDiscoveryFailureDegrades(t *testing.T) {
	adapter := &fakeAdapter{name: "acme", extractErr: fmt.Errorf("listing unreachable")}
	o, _ := newTestOrchestrator(t, adapter)

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.Equal(t, 0, result.TotalJobs)
	assert.GreaterOrEqual(t, len(result.ErrorLogs), 1)
	assert.Empty(t, result.Error, "soft discovery failure must not be structural")
	assert.False(t, result.CompletedAt.IsZero())
}

func TestCrawlCompanyPartialParseFailures(t *testing.T) {
	refs := makeRefs(5)
	adapter := &fakeAdapter{
		name: "acme",
		refs: refs,
		failURLs: map[string]bool{
			refs[1].URL: true,
			refs[3].URL: true,
		},
	}
	o, store := newTestOrchestrator(t, adapter)

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.Equal(t, 3, result.TotalJobs)
	assert.Len(t, store.htmlByID, 3)

	parseErrors := 0
	for _, msg := range result.ErrorLogs {
		if strings.Contains(msg, "parse failed") {
			parseErrors++
			assert.Contains(t, msg, "Navigation failed")
		}
	}
	assert.Equal(t, 2, parseErrors)
}

func TestCrawlCompanyUnknownCompanyIsStructuralFailure(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeAdapter{name: "acme"})

	result := o.CrawlCompany(context.Background(), "nonexistent", RunOptions{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "No adapter registered for company")
	assert.Contains(t, result.Error, "nonexistent")
	assert.Zero(t, result.TotalJobs)
}

func TestCrawlCompanySerializedWhenLimitIsOne(t *testing.T) {
	adapter := &fakeAdapter{name: "acme", refs: makeRefs(6), maxConc: 1}
	o, _ := newTestOrchestrator(t, adapter)

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.Equal(t, 6, result.TotalJobs)
	assert.Equal(t, int32(1), adapter.maxActive, "limit 1 must serialize exactly")
}

func TestPersistCeilingConfiguredIndependently(t *testing.T) {
	adapter := &fakeAdapter{name: "acme", refs: makeRefs(6), maxConc: 3}
	o, store := newTestOrchestrator(t, adapter)
	o.config.Storage.MaxConcurrentSaves = 1

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.Equal(t, 6, result.SuccessfulSaves)
	assert.Equal(t, int32(1), store.maxActive, "configured save ceiling must serialize persistence")
	assert.LessOrEqual(t, adapter.maxActive, int32(3), "parse ceiling stays at the adapter's value")
}

func TestCrawlCompanyStorageFailureIsPerJob(t *testing.T) {
	adapter := &fakeAdapter{name: "acme", refs: makeRefs(4)}
	o, store := newTestOrchestrator(t, adapter)
	store.failIDs["job-2"] = true

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.Equal(t, 4, result.TotalJobs)
	assert.Equal(t, 3, result.SuccessfulSaves)
	assert.Equal(t, 1, result.FailedSaves)
	assert.Equal(t, result.SuccessfulSaves+result.FailedSaves, len(result.StorageResults))

	for _, sr := range result.StorageResults {
		if !sr.Success {
			assert.Contains(t, sr.Error, "Storage operation failed")
		}
	}
}

func TestCrawlCompanyCaptureFailureIsSoft(t *testing.T) {
	adapter := &fakeAdapter{name: "acme", refs: makeRefs(2)}
	o, store := newTestOrchestrator(t, adapter)
	o.capture = &fakeCapture{err: fmt.Errorf("render crashed")}

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.Equal(t, 2, result.SuccessfulSaves)
	assert.Equal(t, 0, result.FailedSaves)
	for _, sr := range result.StorageResults {
		assert.Empty(t, sr.ScreenshotPath)
		assert.NotEmpty(t, sr.HTMLPath)
	}
	assert.Len(t, store.htmlByID, 2)
}

func TestCrawlCompanyMaxJobsClamp(t *testing.T) {
	adapter := &fakeAdapter{name: "acme", refs: makeRefs(20)}
	o, _ := newTestOrchestrator(t, adapter)

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{MaxJobs: 5})

	assert.Equal(t, 5, result.TotalJobs)
}

func TestCrawlAllIsolatesSites(t *testing.T) {
	good := &fakeAdapter{name: "acme", refs: makeRefs(3)}
	bad := &fakeAdapter{name: "globex", extractErr: fmt.Errorf("blocked")}
	o, _ := newTestOrchestrator(t, good, bad)

	results := o.CrawlAll(context.Background(), RunOptions{})

	require.Len(t, results, 2)
	assert.True(t, results["acme"].Success)
	assert.Equal(t, 3, results["acme"].TotalJobs)
	assert.Equal(t, 0, results["globex"].TotalJobs)
	assert.NotEmpty(t, results["globex"].ErrorLogs)
}

func TestDedupeReferences(t *testing.T) {
	refs := []models.JobReference{
		{URL: "u1", JobID: "a"},
		{URL: "u2", JobID: "b"},
		{URL: "u3", JobID: "a"},
		{URL: "u4", JobID: ""},
	}

	out := DedupeReferences(refs)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].JobID)
	assert.Equal(t, "b", out[1].JobID)
}

// htmlFakeAdapter adds an HTML-only parse path to the fake adapter
type htmlFakeAdapter struct {
	fakeAdapter
}

func (a *htmlFakeAdapter) ParseJobHTML(html, url string, index int) (*models.JobPosting, error) {
	return &models.JobPosting{
		URL:         url,
		JobID:       fmt.Sprintf("job-%d", index),
		Company:     a.name,
		Title:       fmt.Sprintf("Engineer %d", index),
		HTMLContent: html,
		CreatedAt:   time.Now(),
	}, nil
}

type fakeFetcher struct {
	html  string
	err   error
	calls int32
}

func (f *fakeFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

func TestCrawlCompanyFallbackFetchRecoversFailedParses(t *testing.T) {
	adapter := &htmlFakeAdapter{fakeAdapter: fakeAdapter{
		name: "acme",
		refs: makeRefs(3),
		failURLs: map[string]bool{
			"https://example.com/jobs/1": true,
		},
	}}
	o, store := newTestOrchestrator(t, adapter)

	fetcher := &fakeFetcher{html: "<html><body>remote copy</body></html>"}
	o.SetFallbackFetcher(fetcher)

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TotalJobs)
	assert.Equal(t, 3, result.SuccessfulSaves)
	assert.Empty(t, result.ErrorLogs)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
	assert.Equal(t, "<html><body>remote copy</body></html>", store.htmlByID["job-1"])
}

func TestCrawlCompanyFallbackFetchFailureKeepsParseError(t *testing.T) {
	adapter := &htmlFakeAdapter{fakeAdapter: fakeAdapter{
		name: "acme",
		refs: makeRefs(2),
		failURLs: map[string]bool{
			"https://example.com/jobs/0": true,
		},
	}}
	o, _ := newTestOrchestrator(t, adapter)
	o.SetFallbackFetcher(&fakeFetcher{err: fmt.Errorf("remote fetch down")})

	result := o.CrawlCompany(context.Background(), "acme", RunOptions{})

	assert.Equal(t, 1, result.TotalJobs)
	found := false
	for _, entry := range result.ErrorLogs {
		if strings.Contains(entry, "parse failed") {
			found = true
		}
	}
	assert.True(t, found, "original parse error must survive a failed fallback")
}
