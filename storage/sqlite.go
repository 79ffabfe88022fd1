package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LeosDev13/idealista-scraper/models"
	"github.com/LeosDev13/idealista-scraper/utils"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS locations (
		id                   TEXT PRIMARY KEY,
		title                TEXT NOT NULL,
		path                 TEXT NOT NULL,
		category             TEXT NOT NULL DEFAULT '',
		is_interest_zone     INTEGER NOT NULL DEFAULT 0,
		number_of_properties INTEGER NOT NULL DEFAULT 0,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS properties (
		id                    TEXT PRIMARY KEY,
		price_amount          REAL NOT NULL DEFAULT 0,
		price_currency        TEXT NOT NULL DEFAULT 'EUR',
		title                 TEXT NOT NULL DEFAULT '',
		description           TEXT NOT NULL DEFAULT '',
		address               TEXT NOT NULL DEFAULT '',
		square_meters         INTEGER NOT NULL DEFAULT 0,
		rooms                 INTEGER NOT NULL DEFAULT 0,
		bathrooms             INTEGER NOT NULL DEFAULT 0,
		has_garage            INTEGER NOT NULL DEFAULT 0,
		has_garden            INTEGER NOT NULL DEFAULT 0,
		has_pool              INTEGER NOT NULL DEFAULT 0,
		has_terrace           INTEGER NOT NULL DEFAULT 0,
		is_new_development    INTEGER NOT NULL DEFAULT 0,
		needs_renovation      INTEGER NOT NULL DEFAULT 0,
		is_in_good_condition  INTEGER NOT NULL DEFAULT 0,
		agency_name           TEXT NOT NULL DEFAULT '',
		location              TEXT NOT NULL DEFAULT '',
		is_illegally_occupied INTEGER NOT NULL DEFAULT 0,
		url                   TEXT NOT NULL DEFAULT '',
		location_id           TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_properties_location ON properties(location_id);
`

const sqliteInsertLocation = `
	INSERT OR IGNORE INTO locations (id, title, path, category, is_interest_zone, number_of_properties, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const sqliteInsertProperty = `
	INSERT OR IGNORE INTO properties (
		id, price_amount, price_currency, title, description, address,
		square_meters, rooms, bathrooms, has_garage, has_garden, has_pool,
		has_terrace, is_new_development, needs_renovation, is_in_good_condition,
		agency_name, location, is_illegally_occupied, url, location_id
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SQLiteGateway persists crawled data to a local SQLite file. It exists for
// credential-free runs; the schema mirrors the PostgreSQL one.
type SQLiteGateway struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewSQLiteGateway opens (creating if needed) the database at path.
func NewSQLiteGateway(path string, logger *utils.Logger) (*SQLiteGateway, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// Row-at-a-time inserts from one process; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLiteGateway{db: db, logger: logger}, nil
}

// InsertLocations writes enumeration results row by row, skipping failures.
func (g *SQLiteGateway) InsertLocations(ctx context.Context, locations []*models.Location) error {
	rows := make([][]any, len(locations))
	for i, l := range locations {
		rows[i] = []any{
			l.ID, l.Title, l.Path, l.Category,
			boolToInt(l.IsInterestZone), l.NumberOfProperties,
			l.CreatedAt.UTC().Format(time.RFC3339), l.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	return execPerRow(ctx, g.db, g.logger, sqliteInsertLocation, rows, locationIDs(locations))
}

// InsertProperties writes one extracted batch row by row, skipping failures.
func (g *SQLiteGateway) InsertProperties(ctx context.Context, properties []*models.Property) error {
	rows := make([][]any, len(properties))
	for i, p := range properties {
		rows[i] = []any{
			p.ID, p.Price.Amount(), p.Price.Currency(), p.Title, p.Description, p.Address,
			p.SquareMeters, p.Rooms, p.Bathrooms,
			boolToInt(p.HasGarage), boolToInt(p.HasGarden), boolToInt(p.HasPool),
			boolToInt(p.HasTerrace), boolToInt(p.IsNewDevelopment), boolToInt(p.NeedsRenovation),
			boolToInt(p.IsInGoodCondition),
			p.AgencyName, p.Location, boolToInt(p.IsIllegallyOccupied), p.URL, p.LocationID,
		}
	}
	return execPerRow(ctx, g.db, g.logger, sqliteInsertProperty, rows, propertyIDs(properties))
}

// GetLocations returns all locations, busiest first.
func (g *SQLiteGateway) GetLocations(ctx context.Context) ([]*models.Location, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT id, title, path, category, is_interest_zone, number_of_properties, created_at, updated_at
		FROM locations
		ORDER BY number_of_properties DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		var (
			l                  models.Location
			interestZone       int
			createdAt, updated string
		)
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Path, &l.Category,
			&interestZone, &l.NumberOfProperties, &createdAt, &updated,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan location: %w", err)
		}
		l.IsInterestZone = interestZone != 0
		l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		l.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		locations = append(locations, &l)
	}
	return locations, rows.Err()
}

func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
