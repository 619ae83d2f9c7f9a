package sites

import (
	"context"
	"time"

	"jobsnap/internal/config"
	"jobsnap/internal/crawler"
	"jobsnap/internal/crawler/browser"
	"jobsnap/internal/crawler/captcha"
)

// RegisterAll wires every built-in site adapter into the registry
func RegisterAll(reg *crawler.Registry, cfg *config.Config, solver captcha.Solver) error {
	adapters := []crawler.Adapter{
		NewNaverAdapter(cfg, solver),
		NewKakaoAdapter(cfg, solver),
		NewAutoEverAdapter(cfg, solver),
	}
	for _, a := range adapters {
		if err := reg.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// loadPage navigates, waits for the site's settle time and returns the
// rendered HTML. A detected bot interstitial gets the one-shot challenge
// mitigation before the HTML is re-read.
func loadPage(ctx context.Context, page *browser.Page, solver captcha.Solver, url string, timeout, settle time.Duration) (string, error) {
	if err := page.Navigate(ctx, url, timeout); err != nil {
		return "", err
	}
	page.WaitSettle(settle)

	html, err := page.HTML()
	if err != nil {
		return "", err
	}

	if browser.IsChallengeHTML(html) {
		if err := page.HandleChallenge(ctx, solver, url); err != nil {
			return "", err
		}
		html, err = page.HTML()
		if err != nil {
			return "", err
		}
	}
	return html, nil
}
