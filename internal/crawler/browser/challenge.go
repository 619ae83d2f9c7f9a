package browser

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"jobsnap/internal/crawler/captcha"
	"jobsnap/pkg/utils"
)

var challengeMarkers = []string{
	"checking your browser",
	"just a moment",
	"cf-challenge",
	"cf-turnstile",
	"challenge-platform",
	"verifying you are human",
	"attention required! | cloudflare",
	"ddos protection by",
}

// IsChallengeHTML reports whether the HTML looks like a bot-verification
// interstitial rather than real content
func IsChallengeHTML(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// HandleChallenge applies the one-shot mitigation for a detected
// interstitial: a bounded extra wait of 8-12 seconds with light pointer
// activity, then an optional Turnstile solve when a solver is configured.
// It is not a retry loop; if the page still shows a challenge afterward
// the caller records a per-job failure.
func (p *Page) HandleChallenge(ctx context.Context, solver captcha.Solver, pageURL string) error {
	wait := time.Duration(8+rand.Intn(5)) * time.Second
	p.logger.Info("Bot challenge detected, waiting it out", map[string]interface{}{
		"url":  pageURL,
		"wait": wait.String(),
	})

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			p.jitterMouse()
		}
	}

	html, err := p.HTML()
	if err != nil {
		return err
	}
	if !IsChallengeHTML(html) {
		return nil
	}

	if solver == nil {
		return utils.NewChallengeError(fmt.Sprintf("not cleared after %s wait", wait))
	}

	siteKey := p.extractSiteKey()
	if siteKey == "" {
		return utils.NewChallengeError("challenge persists and no sitekey found for solving")
	}

	token, err := solver.SolveTurnstile(ctx, siteKey, pageURL)
	if err != nil {
		return err
	}
	return p.injectTurnstileToken(token)
}

// extractSiteKey pulls the Turnstile sitekey out of the challenge page
func (p *Page) extractSiteKey() string {
	var siteKey string
	_ = rod.Try(func() {
		result := p.rod.MustEval(`() => {
			const el = document.querySelector('[data-sitekey]');
			return el ? el.getAttribute('data-sitekey') : '';
		}`)
		siteKey = result.Str()
	})
	return siteKey
}

// injectTurnstileToken plants a solved token into the challenge form and submits it
func (p *Page) injectTurnstileToken(token string) error {
	err := rod.Try(func() {
		p.rod.MustEval(`(token) => {
			let inputs = document.querySelectorAll('input[name*="turnstile"], input[name="cf-turnstile-response"]');
			for (let input of inputs) {
				input.value = token;
			}

			let widget = document.querySelector('[data-sitekey]');
			if (widget) {
				let callback = widget.getAttribute('data-callback');
				if (callback && typeof window[callback] === 'function') {
					window[callback](token);
				}
			}

			let forms = document.querySelectorAll('form');
			for (let form of forms) {
				if (form.querySelector('[data-sitekey]') || form.querySelector('input[name*="turnstile"]')) {
					form.submit();
					break;
				}
			}
		}`, token)
	})
	if err != nil {
		return fmt.Errorf("failed to inject Turnstile token: %w", err)
	}

	p.logger.Debug("Turnstile token injected")
	return nil
}
