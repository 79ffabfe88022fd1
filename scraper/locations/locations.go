package locations

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeosDev13/idealista-scraper/config"
	"github.com/LeosDev13/idealista-scraper/fetch"
	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/storage"
	"github.com/LeosDev13/idealista-scraper/utils"
)

// suggestion is one entry of the site's location suggestion endpoint.
type suggestion struct {
	Count          int    `json:"count"`
	Text           string `json:"text"`
	ZoneOfInterest bool   `json:"zoneOfInterest"`
	Category       string `json:"category"`
	URL            string `json:"url"`
}

var boldTagReplacer = strings.NewReplacer("<b>", "", "</b>", "")

// Scraper seeds the location table by querying the suggestion endpoint for
// every two-letter lowercase prefix. It is intended to run rarely: the
// listing taxonomy changes slowly, so all discoveries are accumulated in
// memory and flushed in a single batch at the end of the run. A crash
// mid-enumeration loses all progress; that trade-off is accepted.
type Scraper struct {
	store      storage.Gateway
	fetcher    *fetch.Bounded
	logger     *utils.Logger
	suggestURL string

	mu        sync.Mutex
	locations []*models.Location

	now   func() time.Time
	newID func() string
}

// New creates an enumeration Scraper with its own concurrency gate,
// independent of the property crawler's.
func New(cfg *config.Config, profile *config.SiteProfile, client fetch.Client, store storage.Gateway, logger *utils.Logger) *Scraper {
	pacer := utils.NewPacer(cfg.PacingMin(), cfg.PacingMax())
	return &Scraper{
		store:      store,
		fetcher:    fetch.NewBounded(client, cfg.MaxConcurrency, pacer, logger),
		logger:     logger,
		suggestURL: profile.SuggestURL,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run enumerates every prefix, then flushes all discovered locations in one
// batch. Per-prefix failures are logged and skipped.
func (s *Scraper) Run(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("Scraping locations...")

	prefixes := prefixCombinations()
	tasks := make([]func() (int, error), 0, len(prefixes))
	for _, prefix := range prefixes {
		prefix := prefix
		tasks = append(tasks, func() (int, error) {
			return s.fetchPrefix(ctx, prefix)
		})
	}

	_, failures := utils.SettleAll(tasks)
	for _, err := range failures {
		s.logger.Error("Prefix enumeration failed: %v", err)
	}

	s.mu.Lock()
	discovered := s.locations
	s.mu.Unlock()

	if len(discovered) == 0 {
		s.logger.Error("No locations discovered — nothing to persist")
		return nil
	}

	if err := s.store.InsertLocations(ctx, discovered); err != nil {
		s.logger.Error("Persisting locations failed: %v", err)
		return err
	}

	s.logger.Info("Total time: %.2fs", time.Since(start).Seconds())
	s.logger.Info("Found locations: %d (%d prefixes failed)", len(discovered), len(failures))
	return nil
}

// fetchPrefix queries one prefix and appends its locations to the shared
// accumulator. Returns how many locations the prefix produced.
func (s *Scraper) fetchPrefix(ctx context.Context, prefix string) (int, error) {
	var items []suggestion
	if err := s.fetcher.FetchJSON(ctx, s.suggestURL+prefix, &items); err != nil {
		return 0, err
	}

	now := s.now().UTC()
	batch := make([]*models.Location, 0, len(items))
	for _, item := range items {
		batch = append(batch, &models.Location{
			ID:                 s.newID(),
			Title:              boldTagReplacer.Replace(item.Text),
			Path:               item.URL,
			Category:           item.Category,
			IsInterestZone:     item.ZoneOfInterest,
			NumberOfProperties: item.Count,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}

	s.mu.Lock()
	s.locations = append(s.locations, batch...)
	s.mu.Unlock()

	s.logger.Debug("Prefix %q produced %d locations", prefix, len(batch))
	return len(batch), nil
}

// prefixCombinations returns all 676 two-letter lowercase prefixes.
func prefixCombinations() []string {
	prefixes := make([]string, 0, 26*26)
	for a := 'a'; a <= 'z'; a++ {
		for b := 'a'; b <= 'z'; b++ {
			prefixes = append(prefixes, string(a)+string(b))
		}
	}
	return prefixes
}
