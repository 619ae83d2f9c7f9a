package browser

import (
	"math/rand"
	"time"

	"github.com/go-rod/rod"
)

const defaultMaxScrolls = 10

// HumanScroll walks the page toward the bottom with randomized deltas and
// pointer jitter instead of jumping straight down. It probes page height
// between scrolls and stops as soon as the height stabilizes or the attempt
// ceiling is reached, then resets the scroll position to the top.
//
// The ceiling bounds worst-case runtime against pages that keep growing.
func (p *Page) HumanScroll(maxScrolls int) error {
	if maxScrolls <= 0 {
		maxScrolls = defaultMaxScrolls
	}

	lastHeight, err := p.PageHeight()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxScrolls; attempt++ {
		delta := 300 + rand.Intn(501) // 300-800px per step

		err := rod.Try(func() {
			p.rod.MustEval(`(delta) => window.scrollBy({top: delta, behavior: 'smooth'})`, delta)
		})
		if err != nil {
			return err
		}

		p.jitterMouse()
		time.Sleep(time.Duration(400+rand.Intn(800)) * time.Millisecond)

		height, err := p.PageHeight()
		if err != nil {
			return err
		}

		atBottom := false
		_ = rod.Try(func() {
			result := p.rod.MustEval(`() => (window.innerHeight + window.scrollY) >= document.body.scrollHeight - 10`)
			atBottom = result.Bool()
		})

		if atBottom && height == lastHeight {
			break
		}
		lastHeight = height
	}

	return rod.Try(func() {
		p.rod.MustEval(`() => window.scrollTo({top: 0})`)
	})
}

// ScrollUntilStable repeatedly scrolls to the bottom and compares a
// caller-supplied probe (usually an item count) before and after each
// scroll. It stops the moment the probe sees no growth, so a listing that
// is already fully loaded costs exactly one stability check.
func (p *Page) ScrollUntilStable(probe func() (int, error), maxScrolls int, settle time.Duration) (int, error) {
	scroll := func() error {
		return rod.Try(func() {
			p.rod.MustEval(`() => window.scrollTo({top: document.body.scrollHeight, behavior: 'smooth'})`)
		})
	}

	count, err := scrollUntilStable(probe, scroll, p.jitterMouse, maxScrolls, settle)

	_ = rod.Try(func() {
		p.rod.MustEval(`() => window.scrollTo({top: 0})`)
	})
	return count, err
}

func scrollUntilStable(probe func() (int, error), scroll func() error, jitter func(), maxScrolls int, settle time.Duration) (int, error) {
	if maxScrolls <= 0 {
		maxScrolls = defaultMaxScrolls
	}

	last, err := probe()
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < maxScrolls; attempt++ {
		if err := scroll(); err != nil {
			return last, err
		}

		jitter()
		time.Sleep(settle)

		current, err := probe()
		if err != nil {
			return last, err
		}
		if current <= last {
			break
		}
		last = current
	}

	return last, nil
}

// jitterMouse moves the pointer a small random amount between scrolls
func (p *Page) jitterMouse() {
	_ = rod.Try(func() {
		x := float64(200 + rand.Intn(1400))
		y := float64(150 + rand.Intn(700))
		p.rod.Mouse.MustMoveTo(x, y)
	})
}
