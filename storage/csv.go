package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/utils"
)

var locationHeader = []string{
	"id", "title", "path", "category", "is_interest_zone", "number_of_properties",
	"created_at", "updated_at",
}

var propertyHeader = []string{
	"id", "price_amount", "price_currency", "title", "description", "address",
	"square_meters", "rooms", "bathrooms", "has_garage", "has_garden", "has_pool",
	"has_terrace", "is_new_development", "needs_renovation", "is_in_good_condition",
	"agency_name", "location", "is_illegally_occupied", "url", "location_id",
}

// CSVGateway is a file-backed Gateway for dry runs without a database.
// Locations and properties land in locations.csv and properties.csv under
// the configured directory; GetLocations reads back a locations.csv written
// by a previous enumeration run. Safe for concurrent use.
type CSVGateway struct {
	mu     sync.Mutex
	dir    string
	logger *utils.Logger
}

// NewCSVGateway creates the output directory if needed.
func NewCSVGateway(dir string, logger *utils.Logger) (*CSVGateway, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVGateway{dir: dir, logger: logger}, nil
}

// InsertLocations appends enumeration results to locations.csv.
func (g *CSVGateway) InsertLocations(_ context.Context, locations []*models.Location) error {
	rows := make([][]string, len(locations))
	for i, l := range locations {
		rows[i] = []string{
			l.ID, l.Title, l.Path, l.Category,
			strconv.FormatBool(l.IsInterestZone), strconv.Itoa(l.NumberOfProperties),
			l.CreatedAt.UTC().Format(time.RFC3339), l.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	return g.appendRows("locations.csv", locationHeader, rows)
}

// InsertProperties appends one extracted batch to properties.csv.
func (g *CSVGateway) InsertProperties(_ context.Context, properties []*models.Property) error {
	rows := make([][]string, len(properties))
	for i, p := range properties {
		rows[i] = []string{
			p.ID,
			strconv.FormatFloat(p.Price.Amount(), 'f', 2, 64), p.Price.Currency(),
			p.Title, p.Description, p.Address,
			strconv.Itoa(p.SquareMeters), strconv.Itoa(p.Rooms), strconv.Itoa(p.Bathrooms),
			strconv.FormatBool(p.HasGarage), strconv.FormatBool(p.HasGarden),
			strconv.FormatBool(p.HasPool), strconv.FormatBool(p.HasTerrace),
			strconv.FormatBool(p.IsNewDevelopment), strconv.FormatBool(p.NeedsRenovation),
			strconv.FormatBool(p.IsInGoodCondition),
			p.AgencyName, p.Location, strconv.FormatBool(p.IsIllegallyOccupied),
			p.URL, p.LocationID,
		}
	}
	return g.appendRows("properties.csv", propertyHeader, rows)
}

// GetLocations parses locations.csv, busiest location first.
func (g *CSVGateway) GetLocations(_ context.Context) ([]*models.Location, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := os.Open(filepath.Join(g.dir, "locations.csv"))
	if err != nil {
		return nil, fmt.Errorf("csv: open locations: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read locations: %w", err)
	}

	var locations []*models.Location
	for i, rec := range records {
		if i == 0 || len(rec) < len(locationHeader) {
			continue
		}
		interest, _ := strconv.ParseBool(rec[4])
		count, _ := strconv.Atoi(rec[5])
		created, _ := time.Parse(time.RFC3339, rec[6])
		updated, _ := time.Parse(time.RFC3339, rec[7])
		locations = append(locations, &models.Location{
			ID: rec[0], Title: rec[1], Path: rec[2], Category: rec[3],
			IsInterestZone: interest, NumberOfProperties: count,
			CreatedAt: created, UpdatedAt: updated,
		})
	}

	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].NumberOfProperties > locations[j].NumberOfProperties
	})
	return locations, nil
}

func (g *CSVGateway) Close() error { return nil }

func (g *CSVGateway) appendRows(name string, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	path := filepath.Join(g.dir, name)
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
	}

	saved := 0
	for i, row := range rows {
		if err := w.Write(row); err != nil {
			g.logger.Error("storage: csv row %q failed: %v", rows[i][0], err)
			continue
		}
		saved++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	if saved == 0 {
		return fmt.Errorf("csv: all %d rows failed to write", len(rows))
	}
	return nil
}
