package sites

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

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
	naverListingURL  = "https://recruit.navercorp.com/rcrt/list.do"
	naverDetailURL   = "https://recruit.navercorp.com/rcrt/view.do?annoId=%s"
	naverCardSel     = "li.card_item"
	naverSectionCap  = 10000
)

// NaverAdapter crawls the Naver careers board. The listing is an
// infinite-scroll page; job cards expose their announcement ID through
// onclick handlers rather than plain links.
type NaverAdapter struct {
	config *config.Config
	solver captcha.Solver
	logger types.Logger
}

// NewNaverAdapter creates the Naver site adapter
func NewNaverAdapter(cfg *config.Config, solver captcha.Solver) *NaverAdapter {
	return &NaverAdapter{
		config: cfg,
		solver: solver,
		logger: logging.GetGlobalLogger().WithField("adapter", "naver"),
	}
}

func (a *NaverAdapter) CompanyName() string { return "Naver" }

func (a *NaverAdapter) ListingURLs() []string {
	return []string{naverListingURL}
}

// ExtractJobReferences scrolls the listing until the card count stops
// growing, then reads announcement IDs out of the loaded cards
func (a *NaverAdapter) ExtractJobReferences(ctx context.Context, page *browser.Page) ([]models.JobReference, error) {
	listing := a.ListingURLs()[0]
	if _, err := loadPage(ctx, page, a.solver, listing, a.Timeout(), a.WaitTime()); err != nil {
		return nil, fmt.Errorf("naver listing load failed: %w", err)
	}

	count, err := page.ScrollUntilStable(func() (int, error) {
		return page.ElementCount(naverCardSel)
	}, a.config.Crawler.MaxScrolls, 2*time.Second)
	if err != nil {
		a.logger.Warn("Infinite scroll stopped early", map[string]interface{}{
			"error": err.Error(),
		})
	}
	a.logger.Info("Listing fully loaded", map[string]interface{}{
		"cards": count,
	})

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	refs, err := ParseNaverListing(html)
	if err != nil {
		return nil, err
	}
	return crawler.DedupeReferences(refs), nil
}

// ParseNaverListing extracts job references from listing HTML. Split out
// so the card heuristics are testable without a browser.
func ParseNaverListing(html string) ([]models.JobReference, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse naver listing: %w", err)
	}

	var refs []models.JobReference
	doc.Find(naverCardSel).Each(func(i int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h4.card_title").First().Text())

		annoID := annoIDFromOnclick(card.AttrOr("onclick", ""))
		if annoID == "" {
			annoID = annoIDFromOnclick(card.Find("a").First().AttrOr("onclick", ""))
		}
		if annoID == "" {
			annoID = card.AttrOr("data-annoid", card.AttrOr("data-id", ""))
		}
		if annoID == "" {
			return
		}

		refs = append(refs, models.JobReference{
			URL:   fmt.Sprintf(naverDetailURL, annoID),
			JobID: "naver_" + annoID,
			Title: title,
		})
	})
	return refs, nil
}

// annoIDFromOnclick pulls the announcement ID out of a show('...') handler
func annoIDFromOnclick(onclick string) string {
	if onclick == "" || !strings.Contains(onclick, "show(") {
		return ""
	}
	rest := onclick[strings.Index(onclick, "show(")+len("show("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return strings.Trim(rest[:end], `'" `)
}

// ParseJobDetail loads one posting and extracts structured fields with
// the shared section heuristics
func (a *NaverAdapter) ParseJobDetail(ctx context.Context, page *browser.Page, url string, index int) (*models.JobPosting, error) {
	html, err := loadPage(ctx, page, a.solver, url, a.Timeout(), a.WaitTime())
	if err != nil {
		return nil, err
	}

	return a.ParseJobHTML(html, url, index)
}

// ParseJobHTML builds a posting from already-rendered detail HTML
func (a *NaverAdapter) ParseJobHTML(html, url string, index int) (*models.JobPosting, error) {
	posting := ExtractNaverDetail(html, url)
	stampPosting(posting, "naver", a.WaitTime(), index, naverSectionCap)
	return posting, nil
}

// ExtractNaverDetail builds a posting from detail-page HTML
func ExtractNaverDetail(html, url string) *models.JobPosting {
	posting := &models.JobPosting{
		URL:         url,
		JobID:       naverJobID(url),
		Company:     "Naver",
		HTMLContent: html,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return posting
	}

	posting.Title = firstText(doc, "h4.card_title", "h1", "[class*='title']")
	posting.Location = firstText(doc, "[class*='location']", "[class*='area']")

	if text := contentText(doc); text != "" {
		applySections(posting, splitSections(text))
	}
	return posting
}

func naverJobID(url string) string {
	if idx := strings.Index(url, "annoId="); idx >= 0 {
		id := url[idx+len("annoId="):]
		if amp := strings.Index(id, "&"); amp >= 0 {
			id = id[:amp]
		}
		if id != "" {
			return "naver_" + id
		}
	}
	return "naver_" + utils.JobIDFromURL(url)
}

func (a *NaverAdapter) WaitTime() time.Duration { return 3 * time.Second }

func (a *NaverAdapter) Timeout() time.Duration {
	if a.config.Crawler.NavigationTimeout > 0 {
		return a.config.Crawler.NavigationTimeout
	}
	return 45 * time.Second
}

func (a *NaverAdapter) MaxConcurrentJobs() int { return 3 }
func (a *NaverAdapter) RetryCount() int        { return 3 }
