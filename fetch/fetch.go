package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/LeosDev13/idealista-scraper/utils"
)

// Client performs a single HTTP GET and returns the response body.
// Implementations must surface transport failures and non-success statuses
// as *NetworkError.
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// NetworkError reports a failed fetch: a transport-level error, a
// non-success HTTP status, or a timed-out request.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Bounded wraps a Client with a concurrency gate and jittered pacing.
// Acquire may suspend the caller until a slot frees; after a successful
// fetch the pacing delay is slept while the slot is still held, so the
// gate bounds the effective request rate as well as the parallelism.
type Bounded struct {
	client Client
	gate   *utils.Gate
	pacer  *utils.Pacer
	logger *utils.Logger
}

// NewBounded creates a Bounded fetcher with its own gate of the given size.
// Independent fetchers must not share a gate, so the gate is owned here.
func NewBounded(client Client, gateSize int, pacer *utils.Pacer, logger *utils.Logger) *Bounded {
	return &Bounded{
		client: client,
		gate:   utils.NewGate(gateSize),
		pacer:  pacer,
		logger: logger,
	}
}

// Gate exposes the fetcher's admission gate for instrumentation.
func (b *Bounded) Gate() *utils.Gate { return b.gate }

// FetchDocument fetches url under the gate and parses the body as HTML.
func (b *Bounded) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := b.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: parse html: %w", url, err)
	}
	return doc, nil
}

// FetchJSON fetches url under the gate and decodes the body into v.
func (b *Bounded) FetchJSON(ctx context.Context, url string, v any) error {
	body, err := b.fetch(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("fetch %s: decode json: %w", url, err)
	}
	return nil
}

func (b *Bounded) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := b.gate.Acquire(ctx); err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer b.gate.Release()

	body, err := b.client.Get(ctx, url)
	if err != nil {
		b.logger.Error("failed to fetch %s: %v", url, err)
		return nil, err
	}

	// Pacing is slept while still holding the slot; releasing first would
	// let the next request start immediately and defeat the cadence.
	b.pacer.Pause()

	return body, nil
}
