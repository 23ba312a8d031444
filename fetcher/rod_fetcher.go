package fetcher

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodFetcher renders JS-heavy pages with a headless Chromium controlled via
// rod. One browser is launched per run and reused across page fetches.
type RodFetcher struct {
	browser *rod.Browser
	// waitSelector signals render completion; waitTimeout bounds the wait.
	waitSelector string
	waitTimeout  time.Duration
}

// NewRodFetcher launches a headless browser. waitSelector may be empty, in
// which case only DOM stability is waited for.
func NewRodFetcher(waitSelector string, waitTimeout time.Duration) (*RodFetcher, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("mute-audio")

	// Prefer a system Chrome/Chromium over downloading one.
	for _, path := range []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	} {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{
		browser:      browser,
		waitSelector: waitSelector,
		waitTimeout:  waitTimeout,
	}, nil
}

// Close shuts the browser down.
func (rf *RodFetcher) Close() error {
	if rf.browser != nil {
		return rf.browser.Close()
	}
	return nil
}

// Fetch implements the Fetcher interface. It opens a fresh tab, navigates,
// waits for the wait selector (or DOM stability) and returns the rendered
// markup.
func (rf *RodFetcher) Fetch(url string) (string, error) {
	page, err := rf.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("failed to open page: %w", err)}
	}
	defer page.Close()

	if err := page.Navigate(url); err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("navigation failed: %w", err)}
	}
	if err := page.WaitLoad(); err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("page load failed: %w", err)}
	}

	if rf.waitSelector != "" {
		// The listing grid is injected by client-side script; its presence
		// is the signal that rendering finished.
		if _, err := page.Timeout(rf.waitTimeout).Element(rf.waitSelector); err != nil {
			return "", &FetchError{URL: url, Err: fmt.Errorf("timed out waiting for %q: %w", rf.waitSelector, err)}
		}
	}
	if err := page.Timeout(rf.waitTimeout).WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		log.Printf("Warning: DOM did not stabilize for %s, using current state: %v\n", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("failed to get HTML: %w", err)}
	}
	return html, nil
}
