package render

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser renders script-driven pages in a headless browser and returns
// the resulting DOM as HTML. It implements crawler.Renderer.
//
// One Browser holds one browser process; each Render call opens a fresh
// tab so concurrent crawls do not share page state. Close releases the
// browser.
type Browser struct {
	browserCtx context.Context
	cancel     context.CancelFunc

	timeout  time.Duration
	waitTime time.Duration
	logger   *slog.Logger
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithTimeout bounds each Render call.
func WithTimeout(d time.Duration) BrowserOption {
	return func(b *Browser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithWaitTime adds a settle delay after the page body is ready, for pages
// that keep fetching content after load.
func WithWaitTime(d time.Duration) BrowserOption {
	return func(b *Browser) {
		b.waitTime = d
	}
}

// WithLogger sets the render logger.
func WithLogger(logger *slog.Logger) BrowserOption {
	return func(b *Browser) {
		b.logger = logger
	}
}

// NewBrowser starts a headless browser shared by all Render calls.
func NewBrowser(ctx context.Context, opts ...BrowserOption) *Browser {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	b := &Browser{
		browserCtx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Render navigates a fresh tab to pageURL, waits for the body to be ready,
// and returns the rendered outer HTML.
func (b *Browser) Render(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, b.timeout)
	defer timeoutCancel()

	// Stop if the caller's crawl context is cancelled mid-render.
	stop := context.AfterFunc(ctx, timeoutCancel)
	defer stop()

	tasks := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	}
	if b.waitTime > 0 {
		tasks = append(tasks, chromedp.Sleep(b.waitTime))
	}

	var pageHTML string
	tasks = append(tasks, chromedp.OuterHTML("html", &pageHTML))

	start := time.Now()
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return "", err
	}
	b.logger.Debug("rendered page", "url", pageURL, "elapsed", time.Since(start))
	return pageHTML, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.cancel()
}
