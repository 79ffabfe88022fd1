package services

import (
	"errors"
	"sync"

	"github.com/LeosDev13/idealista-scraper/fetch"
	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/utils"
)

// Summary aggregates crawl outcomes so a run can report what it did even
// when individual pages failed. Safe for concurrent use.
type Summary struct {
	mu     sync.Mutex
	logger *utils.Logger

	listingPages int
	persisted    int

	networkFailures    int
	extractionFailures int
	validationFailures int

	byLocation map[string]int

	totalPrice  float64
	priced      int
	totalPerSqm float64
	sqmPriced   int
}

// NewSummary creates an empty Summary.
func NewSummary(logger *utils.Logger) *Summary {
	return &Summary{logger: logger, byLocation: make(map[string]int)}
}

// RecordBatch accounts for one listing page's persisted properties.
func (s *Summary) RecordBatch(locationTitle string, properties []*models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listingPages++
	s.persisted += len(properties)
	if len(properties) > 0 {
		s.byLocation[locationTitle] += len(properties)
	}

	for _, p := range properties {
		if p.Price.Amount() > 0 {
			s.totalPrice += p.Price.Amount()
			s.priced++
		}
		if perSqm := p.PricePerSquareMeter(); perSqm > 0 {
			s.totalPerSqm += perSqm
			s.sqmPriced++
		}
	}
}

// RecordFailure classifies one link's pipeline failure.
func (s *Summary) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var netErr *fetch.NetworkError
	switch {
	case errors.As(err, &netErr):
		s.networkFailures++
	case errors.Is(err, models.ErrNegativeAmount), errors.Is(err, models.ErrInvalidCurrency):
		s.validationFailures++
	default:
		s.extractionFailures++
	}
}

// Persisted returns how many properties were handed to the store.
func (s *Summary) Persisted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted
}

// Failures returns the total number of skipped links.
func (s *Summary) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.networkFailures + s.extractionFailures + s.validationFailures
}

// Print logs the final crawl report.
func (s *Summary) Print() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("=== Crawl summary ===")
	s.logger.Info("Listing pages processed: %d", s.listingPages)
	s.logger.Info("Properties persisted:    %d", s.persisted)
	s.logger.Info("Skipped — network: %d | extraction: %d | validation: %d",
		s.networkFailures, s.extractionFailures, s.validationFailures)

	if s.priced > 0 {
		s.logger.Info("Average price: %.2f EUR", s.totalPrice/float64(s.priced))
	}
	if s.sqmPriced > 0 {
		s.logger.Info("Average price/m²: %.2f EUR", s.totalPerSqm/float64(s.sqmPriced))
	}
	for title, n := range s.byLocation {
		s.logger.Info("  %s: %d properties", title, n)
	}
}
