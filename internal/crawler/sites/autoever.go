package sites

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"jobsnap/internal/config"
	"jobsnap/internal/crawler"
	"jobsnap/internal/crawler/browser"
	"jobsnap/internal/crawler/captcha"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
	"jobsnap/pkg/models"
	"jobsnap/pkg/utils"
)

const (
	autoEverBaseURL    = "https://career.hyundai-autoever.com"
	autoEverApplyURL   = autoEverBaseURL + "/ko/apply"
	autoEverAPIFormat  = autoEverBaseURL + "/_next/data/%s/ko/apply.json?locale=ko&page=apply"
	autoEverDetailFmt  = autoEverBaseURL + "/ko/o/%s"
	autoEverSectionCap = 10000

	// Known-good token used when the page markup stops exposing one.
	// Stale tokens return 404, which the DOM fallback covers.
	autoEverFallbackBuildID = "1Zpy49sCh_Kc82YSMD2YB"
)

// Build tokens appear in asset URLs or inline bootstrap JSON, tried in
// order of reliability.
var autoEverBuildIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/_next/data/([A-Za-z0-9_-]+)/`),
	regexp.MustCompile(`/_next/static/([A-Za-z0-9_-]{20,}?)/`),
	regexp.MustCompile(`"buildId":"([A-Za-z0-9_-]+)"`),
}

// AutoEverAdapter crawls the Hyundai AutoEver careers site. The listing
// is a Next.js page; openings come from its data endpoint, addressed by a
// per-deployment build token scraped out of the rendered markup.
type AutoEverAdapter struct {
	config *config.Config
	solver captcha.Solver
	logger types.Logger
}

// NewAutoEverAdapter creates the Hyundai AutoEver site adapter
func NewAutoEverAdapter(cfg *config.Config, solver captcha.Solver) *AutoEverAdapter {
	return &AutoEverAdapter{
		config: cfg,
		solver: solver,
		logger: logging.GetGlobalLogger().WithField("adapter", "autoever"),
	}
}

func (a *AutoEverAdapter) CompanyName() string { return "HyundaiAutoEver" }

func (a *AutoEverAdapter) ListingURLs() []string {
	return []string{autoEverApplyURL}
}

// ExtractJobReferences loads the apply page, resolves the build token and
// reads openings from the data endpoint. When the endpoint cannot be
// reached the rendered DOM serves as fallback.
func (a *AutoEverAdapter) ExtractJobReferences(ctx context.Context, page *browser.Page) ([]models.JobReference, error) {
	html, err := loadPage(ctx, page, a.solver, a.ListingURLs()[0], a.Timeout(), a.WaitTime())
	if err != nil {
		return nil, fmt.Errorf("autoever apply page load failed: %w", err)
	}

	buildID := ExtractBuildID(html)
	if buildID == "" {
		buildID = autoEverFallbackBuildID
		a.logger.Warn("Build token not found in markup, using fallback", nil)
	}

	apiURL := fmt.Sprintf(autoEverAPIFormat, buildID)
	body, err := page.FetchText(ctx, apiURL, a.Timeout())
	if err == nil {
		if refs := ParseAutoEverOpenings(body); len(refs) > 0 {
			a.logger.Info("Openings read from data endpoint", map[string]interface{}{
				"build_id":   buildID,
				"references": len(refs),
			})
			return crawler.DedupeReferences(refs), nil
		}
	} else {
		a.logger.Warn("Data endpoint unreachable, falling back to DOM", map[string]interface{}{
			"error": err.Error(),
		})
	}

	refs := parseAutoEverDOM(html)
	return crawler.DedupeReferences(refs), nil
}

// ExtractBuildID pulls the deployment build token out of page markup.
// Candidates that look like asset names rather than tokens are rejected.
func ExtractBuildID(html string) string {
	for _, pattern := range autoEverBuildIDPatterns {
		for _, m := range pattern.FindAllStringSubmatch(html, -1) {
			candidate := m[1]
			if len(candidate) <= 5 {
				continue
			}
			lower := strings.ToLower(candidate)
			if strings.Contains(lower, "css") || strings.Contains(lower, "js") ||
				strings.Contains(lower, "json") || strings.Contains(lower, "html") {
				continue
			}
			return candidate
		}
	}
	return ""
}

// ParseAutoEverOpenings reads openings out of the data endpoint response.
// The payload nests them under a react-query cache keyed by "openings".
func ParseAutoEverOpenings(body string) []models.JobReference {
	var refs []models.JobReference
	queries := gjson.Get(body, "pageProps.dehydratedState.queries")
	queries.ForEach(func(_, query gjson.Result) bool {
		if query.Get("queryKey.0").String() != "openings" {
			return true
		}
		query.Get("state.data").ForEach(func(_, opening gjson.Result) bool {
			id := opening.Get("openingId").String()
			if id == "" {
				return true
			}
			refs = append(refs, models.JobReference{
				URL:   fmt.Sprintf(autoEverDetailFmt, id),
				JobID: "hyundai_" + id,
				Title: strings.TrimSpace(opening.Get("title").String()),
			})
			return true
		})
		return true
	})
	return refs
}

// parseAutoEverDOM extracts opening links from the rendered page
func parseAutoEverDOM(html string) []models.JobReference {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var refs []models.JobReference
	doc.Find(`a[href*="/o/"]`).Each(func(i int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		if q := strings.Index(href, "?"); q >= 0 {
			href = href[:q]
		}
		if strings.HasPrefix(href, "/") {
			href = autoEverBaseURL + href
		}

		id := autoEverIDFromURL(href)
		if id == "" {
			return
		}
		refs = append(refs, models.JobReference{
			URL:   href,
			JobID: "hyundai_" + id,
			Title: strings.TrimSpace(link.Text()),
		})
	})
	return refs
}

func autoEverIDFromURL(url string) string {
	idx := strings.LastIndex(url, "/o/")
	if idx < 0 {
		return ""
	}
	id := url[idx+len("/o/"):]
	if slash := strings.Index(id, "/"); slash >= 0 {
		id = id[:slash]
	}
	return id
}

// ParseJobDetail loads one opening page and splits it into sections
func (a *AutoEverAdapter) ParseJobDetail(ctx context.Context, page *browser.Page, url string, index int) (*models.JobPosting, error) {
	html, err := loadPage(ctx, page, a.solver, url, a.Timeout(), a.WaitTime())
	if err != nil {
		return nil, err
	}

	return a.ParseJobHTML(html, url, index)
}

// ParseJobHTML builds a posting from already-rendered detail HTML
func (a *AutoEverAdapter) ParseJobHTML(html, url string, index int) (*models.JobPosting, error) {
	posting := ExtractAutoEverDetail(html, url)
	stampPosting(posting, "autoever", a.WaitTime(), index, autoEverSectionCap)
	return posting, nil
}

// ExtractAutoEverDetail builds a posting from detail-page HTML
func ExtractAutoEverDetail(html, url string) *models.JobPosting {
	posting := &models.JobPosting{
		URL:         url,
		JobID:       autoEverJobID(url),
		Company:     "HyundaiAutoEver",
		HTMLContent: html,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return posting
	}

	posting.Title = firstText(doc, "h1", "h2", "[class*='title']")
	posting.Location = firstText(doc, "[class*='location']", "[class*='workplace']")

	if text := contentText(doc); text != "" {
		applySections(posting, splitSections(text))
	}
	return posting
}

func autoEverJobID(url string) string {
	if id := autoEverIDFromURL(url); id != "" {
		return "hyundai_" + id
	}
	return "hyundai_" + utils.JobIDFromURL(url)
}

func (a *AutoEverAdapter) WaitTime() time.Duration { return 1 * time.Second }

func (a *AutoEverAdapter) Timeout() time.Duration {
	if a.config.Crawler.NavigationTimeout > 0 {
		return a.config.Crawler.NavigationTimeout
	}
	return 45 * time.Second
}

func (a *AutoEverAdapter) MaxConcurrentJobs() int { return 4 }
func (a *AutoEverAdapter) RetryCount() int        { return 3 }
