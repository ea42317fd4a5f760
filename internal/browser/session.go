// Package browser drives a headless Chrome session for the extraction agent.
// Each session owns its own browser process and is discarded after one run.
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	defaultQuietPeriod = 500 * time.Millisecond
	defaultNavTimeout  = 30 * time.Second
)

// Options configures a browser session.
type Options struct {
	// ExecPath pins the browser binary. Empty means auto-discovery.
	ExecPath string
	// UserAgent overrides the default desktop user agent.
	UserAgent string
	// NavTimeout bounds a single page load including the network-idle wait.
	NavTimeout time.Duration
}

type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    Options
	tracker *networkIdleTracker
}

// NewSession launches a headless browser. The session inherits cancellation
// and deadlines from parent, so an expiring request context tears the
// browser down with it.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = defaultNavTimeout
	}

	allocatorOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	if opts.ExecPath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(opts.ExecPath))
	} else if path, ok := findExecPath(); ok {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(path))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocatorOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		opts:    opts,
		tracker: newNetworkIdleTracker(defaultQuietPeriod),
	}

	// Start the browser eagerly so launch failures surface here, not on the
	// first navigation.
	if err := chromedp.Run(browserCtx,
		s.tracker.actionAttach(),
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"User-Agent":      opts.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.8",
		}),
	); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser failed: %w", err)
	}

	return s, nil
}

// Navigate loads the URL and waits for the page's network traffic to settle.
func (s *Session) Navigate(rawURL string) error {
	return chromedp.Run(s.ctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		s.tracker.waitAction(s.opts.NavTimeout),
	)
}

// Location returns the current page URL.
func (s *Session) Location() (string, error) {
	var loc string
	if err := chromedp.Run(s.ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// HTML returns the rendered document markup.
func (s *Session) HTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html failed: %w", err)
	}
	return html, nil
}

// Click activates the element tagged with the given snapshot ID.
func (s *Session) Click(targetID int) error {
	selector := fmt.Sprintf("[data-ai-id='%d']", targetID)
	return chromedp.Run(s.ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// ScrollDown scrolls the viewport by roughly half a screen.
func (s *Session) ScrollDown() error {
	return chromedp.Run(s.ctx,
		chromedp.Evaluate(`window.scrollBy({top: 500, behavior: 'instant'}); true`, nil),
	)
}

func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

func findExecPath() (string, bool) {
	names := []string{
		"chromium",
		"chromium-browser",
		"google-chrome",
		"google-chrome-stable",
		"chrome",
		"msedge",
		"microsoft-edge",
	}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// networkIdleTracker counts in-flight requests and reports when the page has
// been quiet for a fixed period. SPA-heavy pages keep trickling requests, so
// the wait also gives up at the caller's timeout rather than erroring.
type networkIdleTracker struct {
	quiet time.Duration

	mu       sync.Mutex
	inflight int
	idleCh   chan struct{}
}

func newNetworkIdleTracker(quiet time.Duration) *networkIdleTracker {
	if quiet <= 0 {
		quiet = defaultQuietPeriod
	}
	return &networkIdleTracker{quiet: quiet, idleCh: make(chan struct{}, 1)}
}

func (t *networkIdleTracker) actionAttach() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		chromedp.ListenTarget(ctx, func(ev interface{}) {
			switch ev.(type) {
			case *network.EventRequestWillBeSent:
				t.mu.Lock()
				t.inflight++
				t.mu.Unlock()
			case *network.EventLoadingFinished, *network.EventLoadingFailed:
				t.mu.Lock()
				if t.inflight > 0 {
					t.inflight--
				}
				if t.inflight == 0 {
					select {
					case t.idleCh <- struct{}{}:
					default:
					}
				}
				t.mu.Unlock()
			}
		})
		return nil
	})
}

func (t *networkIdleTracker) waitAction(timeout time.Duration) chromedp.Action {
	if timeout <= 0 {
		timeout = defaultNavTimeout
	}

	return chromedp.ActionFunc(func(ctx context.Context) error {
		quietTimer := time.NewTimer(t.quiet)
		defer quietTimer.Stop()

		timeoutTimer := time.NewTimer(timeout)
		defer timeoutTimer.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timeoutTimer.C:
				return nil
			case <-t.idleCh:
				if !quietTimer.Stop() {
					select {
					case <-quietTimer.C:
					default:
					}
				}
				quietTimer.Reset(t.quiet)
			case <-quietTimer.C:
				t.mu.Lock()
				done := t.inflight == 0
				t.mu.Unlock()
				if done {
					return nil
				}
				quietTimer.Reset(t.quiet)
			}
		}
	})
}

// Available reports whether a Chromium-based browser can be located.
func Available() bool {
	_, ok := findExecPath()
	return ok
}
