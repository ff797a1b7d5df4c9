// Package rod implements clearline.Fetcher with a headless Chrome browser
// for product pages that render their content client-side.
package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/clearline"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultMaxPages is the number of pages rendered before the browser is
// replaced with a fresh instance.
const DefaultMaxPages = 75

// navigationStatus reads the HTTP status of the main document.
// Chrome reports 0 when the status is not exposed to the page.
const navigationStatus = `() => {
	const entry = performance.getEntriesByType("navigation")[0];
	return entry && entry.responseStatus ? entry.responseStatus : 0;
}`

// Ensure Fetcher implements clearline.Fetcher at compile time.
var _ clearline.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// Chrome's baseline memory grows under sustained load, so the browser is
// recycled after maxPages renders. A retired browser stays open until the
// pages still rendering on it have finished.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	mu       sync.Mutex
	current  *instance
	pages    int64
	maxPages int64
	stealth  bool
	closed   atomic.Bool

	// launch starts a browser. Replaced in tests.
	launch func() (*instance, error)
}

// instance is one running browser and the fetches using it.
type instance struct {
	browser  *rod.Browser
	pid      int
	shutdown func() error
	inflight sync.WaitGroup
}

// retire waits for in-flight fetches and then shuts the browser down.
func (in *instance) retire() error {
	in.inflight.Wait()
	return in.shutdown()
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxPages sets how many pages are rendered before recycling.
func WithMaxPages(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxPages = n
		}
	}
}

// WithStealth toggles the evasions that hide headless Chrome from bot
// detection. Enabled by default.
func WithStealth(enabled bool) Option {
	return func(f *Fetcher) {
		f.stealth = enabled
	}
}

// NewFetcher launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{maxPages: DefaultMaxPages, stealth: true, launch: launchChrome}
	for _, opt := range opts {
		opt(f)
	}
	in, err := f.launch()
	if err != nil {
		return nil, err
	}
	f.current = in
	return f, nil
}

// Fetch navigates to url and returns the rendered HTML.
// A non-2xx document response is reported as an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	in, err := f.acquire()
	if err != nil {
		return "", err
	}
	defer in.inflight.Done()

	page, err := f.newPage(in.browser)
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	res, err := page.Eval(navigationStatus)
	if err != nil {
		return "", err
	}
	if err := CheckStatus(res.Value.Int()); err != nil {
		return "", err
	}

	return page.HTML()
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	err := f.current.shutdown()
	f.current = nil
	return err
}

// LauncherPID returns the process ID of the current browser launcher.
func (f *Fetcher) LauncherPID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return 0
	}
	return f.current.pid
}

// CheckStatus returns an error for HTTP statuses outside 2xx.
// A zero status means the browser did not expose one and is accepted.
func CheckStatus(status int) error {
	if status == 0 || (status >= 200 && status < 300) {
		return nil
	}
	return fmt.Errorf("unexpected status %d", status)
}

func (f *Fetcher) newPage(browser *rod.Browser) (*rod.Page, error) {
	if f.stealth {
		return stealth.Page(browser)
	}
	return browser.Page(proto.TargetCreateTarget{})
}

// acquire returns the browser to render the next page on and registers the
// caller as in flight. Callers must call inflight.Done when finished.
func (f *Fetcher) acquire() (*instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed.Load() || f.current == nil {
		return nil, fmt.Errorf("fetcher closed")
	}
	if f.pages >= f.maxPages {
		f.recycle()
	}
	f.pages++
	f.current.inflight.Add(1)
	return f.current, nil
}

// recycle swaps in a fresh browser, keeping the old one if the launch fails.
// The old browser is retired in the background. Must be called with mu held.
func (f *Fetcher) recycle() {
	in, err := f.launch()
	if err != nil {
		return
	}
	old := f.current
	f.current = in
	f.pages = 0
	go func() { _ = old.retire() }()
}

func launchChrome() (*instance, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &instance{
		browser: browser,
		pid:     l.PID(),
		shutdown: func() error {
			err := browser.Close()
			l.Kill()
			return err
		},
	}, nil
}
