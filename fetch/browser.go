package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserClient fetches pages through a headless Chrome instance. It is the
// fallback transport for when the site's fingerprinting rejects plain HTTP
// clients: the rendered page of a real browser passes checks that header
// imitation cannot.
type BrowserClient struct {
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
	timeout     time.Duration
}

// NewBrowserClient starts a headless browser allocator. chromeBin may be
// empty to use the default Chrome lookup.
func NewBrowserClient(userAgent, chromeBin string, timeout time.Duration) *BrowserClient {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	return &BrowserClient{
		browserCtx:  browserCtx,
		cancelAlloc: cancelAlloc,
		cancelCtx:   cancelCtx,
		timeout:     timeout,
	}
}

// Get navigates a fresh tab to url and returns the rendered document.
func (c *BrowserClient) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return []byte(html), nil
}

// Close shuts the browser down.
func (c *BrowserClient) Close() {
	c.cancelCtx()
	c.cancelAlloc()
}
