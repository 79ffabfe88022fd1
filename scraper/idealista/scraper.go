package idealista

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/LeosDev13/idealista-scraper/config"
	"github.com/LeosDev13/idealista-scraper/fetch"
	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/services"
	"github.com/LeosDev13/idealista-scraper/storage"
	"github.com/LeosDev13/idealista-scraper/utils"
)

const (
	detailLinkSelector = "a.item-link"
	nextPageSelector   = "li.next a"
)

// Scraper walks every stored location's listing pages, fans detail pages out
// through a bounded fetcher and persists the extracted properties.
//
// Listing pages within one location, and locations themselves, are processed
// strictly sequentially; only detail-page fetches for a single listing page
// run concurrently, bounded by the fetcher's gate.
type Scraper struct {
	store   storage.Gateway
	client  fetch.Client
	fetcher *fetch.Bounded
	pacer   *utils.Pacer
	logger  *utils.Logger
	summary *services.Summary
	visited *utils.URLSet
	baseURL string
}

// New creates a ready-to-use Scraper. The detail-page fetcher owns its own
// concurrency gate, independent of any other fetcher in the process.
func New(cfg *config.Config, profile *config.SiteProfile, client fetch.Client, store storage.Gateway, logger *utils.Logger) *Scraper {
	pacer := utils.NewPacer(cfg.PacingMin(), cfg.PacingMax())
	return &Scraper{
		store:   store,
		client:  client,
		fetcher: fetch.NewBounded(client, cfg.MaxConcurrency, pacer, logger),
		pacer:   pacer,
		logger:  logger,
		summary: services.NewSummary(logger),
		visited: utils.NewURLSet(),
		baseURL: strings.TrimSuffix(profile.BaseURL, "/"),
	}
}

// Summary exposes the run's aggregated outcome counters.
func (s *Scraper) Summary() *services.Summary { return s.summary }

// Run crawls every stored location. Per-location failures are logged and
// skipped; the run itself only fails when the location seed cannot be read.
func (s *Scraper) Run(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("Scraping idealista...")

	locations, err := s.store.GetLocations(ctx)
	if err != nil {
		return fmt.Errorf("idealista: load locations: %w", err)
	}
	if len(locations) == 0 {
		return fmt.Errorf("idealista: no locations found in the store")
	}
	s.logger.Info("Found %d locations in the store", len(locations))

	for i, loc := range locations {
		if loc.Path == "" || loc.ID == "" {
			s.logger.Error("Skipping location %q: missing path or id", loc.Title)
			continue
		}

		url := s.baseURL + strings.ReplaceAll(loc.Path, "mapa", "")
		s.logger.Info("Starting location %q: %s", loc.Title, url)
		s.crawlLocation(ctx, url, loc)
		s.logger.Info("Finished location %q", loc.Title)

		if i < len(locations)-1 {
			s.logger.Debug("Pausing before next location...")
			s.pacer.Pause()
		}
	}

	s.logger.Info("Crawl finished in %.2fs — %d properties persisted, %d links skipped",
		time.Since(start).Seconds(), s.summary.Persisted(), s.summary.Failures())
	return nil
}

// crawlLocation follows the listing pagination until no next link is found.
// A failed listing-page fetch abandons only this location.
func (s *Scraper) crawlLocation(ctx context.Context, startURL string, loc *models.Location) {
	for next := startURL; next != ""; {
		nextURL, err := s.crawlListingPage(ctx, next, loc)
		if err != nil {
			s.logger.Error("Listing page %s failed: %v — abandoning location %q", next, err, loc.Title)
			return
		}
		next = nextURL
	}
}

// crawlListingPage processes one listing page and returns the next page's
// URL, or "" when the pagination ends.
func (s *Scraper) crawlListingPage(ctx context.Context, url string, loc *models.Location) (string, error) {
	s.logger.Info("Scraping listing page: %s", url)

	body, err := s.client.Get(ctx, url)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse listing page: %w", err)
	}

	links := s.detailLinks(doc)
	properties := s.fetchProperties(ctx, links, loc.ID)

	if len(properties) > 0 {
		s.logger.Info("Saving %d properties for %q...", len(properties), loc.Title)
		if err := s.store.InsertProperties(ctx, properties); err != nil {
			s.logger.Error("Persisting batch for %q failed: %v", loc.Title, err)
		}
	}
	s.summary.RecordBatch(loc.Title, properties)

	return s.nextPageURL(doc), nil
}

// detailLinks collects the page's detail-page hrefs, skipping links already
// fetched earlier in the run.
func (s *Scraper) detailLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find(detailLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		if !s.visited.Add(href) {
			s.logger.Debug("Skipping already fetched link: %s", href)
			return
		}
		links = append(links, href)
	})
	return links
}

// fetchProperties fans the page's links out through the bounded fetcher and
// waits for every pipeline to settle. One link's failure yields no property
// for that link and never aborts its siblings.
func (s *Scraper) fetchProperties(ctx context.Context, links []string, locationID string) []*models.Property {
	tasks := make([]func() (*models.Property, error), 0, len(links))
	for _, link := range links {
		link := link
		tasks = append(tasks, func() (*models.Property, error) {
			return s.propertyPipeline(ctx, link, locationID)
		})
	}

	properties, failures := utils.SettleAll(tasks)
	for _, err := range failures {
		s.summary.RecordFailure(err)
	}
	return properties
}

// propertyPipeline runs fetch → extract → construct for a single link.
func (s *Scraper) propertyPipeline(ctx context.Context, link, locationID string) (*models.Property, error) {
	pageURL := s.baseURL + link

	doc, err := s.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	property, err := ExtractProperty(doc, pageURL)
	if err != nil {
		s.logger.Debug("No property extracted from %s: %v", pageURL, err)
		return nil, err
	}

	property.LocationID = locationID
	return property, nil
}

func (s *Scraper) nextPageURL(doc *goquery.Document) string {
	href, ok := doc.Find(nextPageSelector).First().Attr("href")
	if !ok || href == "" {
		s.logger.Debug("No next page found")
		return ""
	}
	return s.baseURL + href
}
