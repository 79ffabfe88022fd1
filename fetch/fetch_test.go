package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeosDev13/idealista-scraper/config"
	"github.com/LeosDev13/idealista-scraper/utils"
)

// countingClient tracks how many Get calls are in flight simultaneously.
type countingClient struct {
	mu      sync.Mutex
	current int
	peak    int
	body    []byte
	delay   time.Duration
}

func (c *countingClient) Get(_ context.Context, _ string) ([]byte, error) {
	c.mu.Lock()
	c.current++
	if c.current > c.peak {
		c.peak = c.current
	}
	c.mu.Unlock()

	time.Sleep(c.delay)

	c.mu.Lock()
	c.current--
	c.mu.Unlock()
	return c.body, nil
}

func quietLogger() *utils.Logger {
	return utils.NewLogger(utils.LevelCritical)
}

func zeroPacer() *utils.Pacer {
	return utils.NewPacer(0, 0)
}

func TestBoundedNeverExceedsGateSize(t *testing.T) {
	const gateSize = 3
	const pending = 12

	client := &countingClient{body: []byte("<html></html>"), delay: 10 * time.Millisecond}
	bounded := NewBounded(client, gateSize, zeroPacer(), quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < pending; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bounded.FetchDocument(context.Background(), "https://example.test/ad")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, client.peak, gateSize,
		"at no instant may more than %d fetches be in flight", gateSize)
	assert.Zero(t, bounded.Gate().InFlight())
}

func TestBoundedFetchJSON(t *testing.T) {
	client := &countingClient{body: []byte(`[{"count": 2}]`)}
	bounded := NewBounded(client, 1, zeroPacer(), quietLogger())

	var items []struct {
		Count int `json:"count"`
	}
	require.NoError(t, bounded.FetchJSON(context.Background(), "https://example.test/suggest", &items))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Count)
}

func TestBoundedAcquireHonorsCancellation(t *testing.T) {
	client := &countingClient{body: []byte("<html></html>"), delay: 200 * time.Millisecond}
	bounded := NewBounded(client, 1, zeroPacer(), quietLogger())

	// occupy the single slot
	go bounded.FetchDocument(context.Background(), "https://example.test/slow")
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := bounded.FetchDocument(ctx, "https://example.test/blocked")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClientSendsFingerprintHeaders(t *testing.T) {
	var gotUA, gotCookie, gotDNT string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		gotDNT = r.Header.Get("DNT")
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	profile := &config.SiteProfile{
		UserAgent: "test-agent/1.0",
		Cookie:    "session=abc",
		Headers:   map[string]string{"DNT": "1"},
	}
	client := NewHTTPClient(profile, time.Second)

	body, err := client.Get(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, "test-agent/1.0", gotUA)
	assert.Equal(t, "session=abc", gotCookie)
	assert.Equal(t, "1", gotDNT)
}

func TestHTTPClientNonSuccessStatusIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	client := NewHTTPClient(config.DefaultSiteProfile(), time.Second)

	_, err := client.Get(context.Background(), ts.URL)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusForbidden, netErr.Status)
}

func TestHTTPClientTimeoutFreesTheCaller(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer ts.Close()
	defer close(block)

	client := NewHTTPClient(config.DefaultSiteProfile(), 50*time.Millisecond)

	start := time.Now()
	_, err := client.Get(context.Background(), ts.URL)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Less(t, time.Since(start), 2*time.Second)
}
