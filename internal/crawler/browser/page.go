package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"jobsnap/internal/logging/types"
)

// Page wraps a hardened browser page. Each page belongs to exactly one
// worker; it is never shared across goroutines.
type Page struct {
	rod    *rod.Page
	logger types.Logger
}

// Rod exposes the underlying page for adapter-specific interactions
func (p *Page) Rod() *rod.Page {
	return p.rod
}

// Navigate loads a URL and waits for the load event, bounded by timeout.
// A timeout is a soft failure scoped to this navigation only.
func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := rod.Try(func() {
		p.rod.Context(navCtx).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	p.logger.Debug("Navigated to URL", map[string]interface{}{
		"url": url,
	})
	return nil
}

// HTML returns the full rendered DOM of the current page
func (p *Page) HTML() (string, error) {
	html, err := p.rod.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

// WaitSettle sleeps for the adapter's declared settle time. Kept as a
// method so the wait shows up in one place in debug logs.
func (p *Page) WaitSettle(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// WaitForSelector waits for an element to appear on the page
func (p *Page) WaitForSelector(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := rod.Try(func() {
		p.rod.Context(ctx).MustElement(selector)
	})
	if err != nil {
		return fmt.Errorf("element %q not found within %s: %w", selector, timeout, err)
	}
	return nil
}

// ElementCount returns how many elements match the selector
func (p *Page) ElementCount(selector string) (int, error) {
	var count int
	err := rod.Try(func() {
		result := p.rod.MustEval(`(sel) => document.querySelectorAll(sel).length`, selector)
		count = int(result.Num())
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count elements for %q: %w", selector, err)
	}
	return count, nil
}

// PageHeight probes the current scrollable height
func (p *Page) PageHeight() (float64, error) {
	var height float64
	err := rod.Try(func() {
		result := p.rod.MustEval(`() => document.body.scrollHeight`)
		height = result.Num()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to probe page height: %w", err)
	}
	return height, nil
}

// FetchText runs a fetch for the given URL inside the page and returns the
// response body as text. The request carries the page's cookies and origin,
// which keeps same-site JSON endpoints reachable without a separate HTTP
// client.
func (p *Page) FetchText(ctx context.Context, url string, timeout time.Duration) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body string
	err := rod.Try(func() {
		result := p.rod.Context(fetchCtx).MustEval(`(u) => fetch(u).then(r => r.text())`, url)
		body = result.Str()
	})
	if err != nil {
		return "", fmt.Errorf("in-page fetch of %s failed: %w", url, err)
	}
	return body, nil
}

// ExpandSections clicks every element matching the given selectors so that
// collapsed accordion content becomes visible to extraction. Click failures
// on individual elements are ignored; partially expanded is still better
// than collapsed.
func (p *Page) ExpandSections(selectors []string) {
	for _, selector := range selectors {
		_ = rod.Try(func() {
			p.rod.MustEval(`(sel) => {
				document.querySelectorAll(sel).forEach(el => {
					try { el.click(); } catch (e) {}
				});
			}`, selector)
		})
	}
}

// Close releases the page. Always called by the owning worker regardless
// of parse outcome.
func (p *Page) Close() error {
	if p.rod == nil {
		return nil
	}
	return rod.Try(func() {
		p.rod.MustClose()
	})
}
