package sites

import (
	"context"
	"fmt"
	"regexp"
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
	kakaoBaseURL    = "https://careers.kakao.com"
	kakaoJobsURL    = kakaoBaseURL + "/jobs"
	kakaoMaxPages   = 50
	kakaoSectionCap = 10000
)

var kakaoCategories = []string{"TECHNOLOGY", "BUSINESS_SERVICES", "DESIGN", "STAFF"}

var kakaoJobIDPattern = regexp.MustCompile(`/jobs/([^/?]+)`)

// KakaoAdapter crawls the Kakao careers board. Listings are paginated per
// job category; pagination for a category ends when a page yields no links
// we have not already seen.
type KakaoAdapter struct {
	config *config.Config
	solver captcha.Solver
	logger types.Logger
}

// NewKakaoAdapter creates the Kakao site adapter
func NewKakaoAdapter(cfg *config.Config, solver captcha.Solver) *KakaoAdapter {
	return &KakaoAdapter{
		config: cfg,
		solver: solver,
		logger: logging.GetGlobalLogger().WithField("adapter", "kakao"),
	}
}

func (a *KakaoAdapter) CompanyName() string { return "Kakao" }

func (a *KakaoAdapter) ListingURLs() []string {
	urls := make([]string, 0, len(kakaoCategories))
	for _, cat := range kakaoCategories {
		urls = append(urls, fmt.Sprintf("%s?part=%s", kakaoJobsURL, cat))
	}
	return urls
}

// ExtractJobReferences walks every category page by page, collecting
// posting links until a page contributes nothing new
func (a *KakaoAdapter) ExtractJobReferences(ctx context.Context, page *browser.Page) ([]models.JobReference, error) {
	seen := make(map[string]bool)
	var refs []models.JobReference

	for _, categoryURL := range a.ListingURLs() {
		for pageNum := 1; pageNum <= kakaoMaxPages; pageNum++ {
			select {
			case <-ctx.Done():
				return refs, ctx.Err()
			default:
			}

			url := fmt.Sprintf("%s&page=%d", categoryURL, pageNum)
			html, err := loadPage(ctx, page, a.solver, url, a.Timeout(), a.WaitTime())
			if err != nil {
				a.logger.Warn("Category page load failed", map[string]interface{}{
					"listing": categoryURL,
					"page":    pageNum,
					"error":   err.Error(),
				})
				break
			}

			pageRefs := ParseKakaoListing(html)
			added := 0
			for _, ref := range pageRefs {
				if seen[ref.JobID] {
					continue
				}
				seen[ref.JobID] = true
				refs = append(refs, ref)
				added++
			}
			if added == 0 {
				break
			}
		}
	}

	a.logger.Info("Listing walk complete", map[string]interface{}{
		"references": len(refs),
	})
	return crawler.DedupeReferences(refs), nil
}

// ParseKakaoListing extracts posting links from one listing page
func ParseKakaoListing(html string) []models.JobReference {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var refs []models.JobReference
	doc.Find(`a[href*="/jobs/P-"]`).Each(func(i int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		if q := strings.Index(href, "?"); q >= 0 {
			href = href[:q]
		}
		if strings.HasPrefix(href, "/") {
			href = kakaoBaseURL + href
		}

		id := kakaoIDFromURL(href)
		if id == "" {
			return
		}

		refs = append(refs, models.JobReference{
			URL:   href,
			JobID: "kakao_" + id,
			Title: strings.TrimSpace(link.Text()),
		})
	})
	return refs
}

func kakaoIDFromURL(url string) string {
	m := kakaoJobIDPattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ParseJobDetail loads one posting page and splits it into sections
func (a *KakaoAdapter) ParseJobDetail(ctx context.Context, page *browser.Page, url string, index int) (*models.JobPosting, error) {
	html, err := loadPage(ctx, page, a.solver, url, a.Timeout(), a.WaitTime())
	if err != nil {
		return nil, err
	}

	return a.ParseJobHTML(html, url, index)
}

// ParseJobHTML builds a posting from already-rendered detail HTML
func (a *KakaoAdapter) ParseJobHTML(html, url string, index int) (*models.JobPosting, error) {
	posting := ExtractKakaoDetail(html, url)
	stampPosting(posting, "kakao", a.WaitTime(), index, kakaoSectionCap)
	return posting, nil
}

// ExtractKakaoDetail builds a posting from detail-page HTML
func ExtractKakaoDetail(html, url string) *models.JobPosting {
	posting := &models.JobPosting{
		URL:         url,
		JobID:       kakaoJobID(url),
		Company:     "Kakao",
		HTMLContent: html,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return posting
	}

	posting.Title = firstText(doc, "h2.tit_jobs", "h2", "h1", "[class*='title']")
	posting.Location = firstText(doc, "[class*='location']", "[class*='place']")

	if text := contentText(doc); text != "" {
		applySections(posting, splitSections(text))
	}
	return posting
}

func kakaoJobID(url string) string {
	if id := kakaoIDFromURL(url); id != "" {
		return "kakao_" + id
	}
	return "kakao_" + utils.JobIDFromURL(url)
}

func (a *KakaoAdapter) WaitTime() time.Duration { return 4 * time.Second }

func (a *KakaoAdapter) Timeout() time.Duration {
	if a.config.Crawler.NavigationTimeout > 0 {
		return a.config.Crawler.NavigationTimeout
	}
	return 45 * time.Second
}

func (a *KakaoAdapter) MaxConcurrentJobs() int { return 2 }
func (a *KakaoAdapter) RetryCount() int        { return 3 }
