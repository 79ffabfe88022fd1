package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/LeosDev13/idealista-scraper/config"
)

// HTTPClient fetches pages over plain HTTP with a browser-like fingerprint:
// a consistent user-agent, client-hint headers and a session cookie blob
// taken from the site profile. The target site fingerprints clients, so the
// header set must stay consistent across requests.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	cookie    string
	headers   map[string]string
}

// NewHTTPClient creates an HTTPClient from the given site profile. The
// timeout converts a hung fetch into a NetworkError so gate slots always
// free.
func NewHTTPClient(profile *config.SiteProfile, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: profile.UserAgent,
		cookie:    profile.Cookie,
		headers:   profile.Headers,
	}
}

// Get fetches url and returns the response body.
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return body, nil
}
